package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"safeher_travel/internal/domain"
)

const maxListed = 50

type CommunityService struct {
	posts    domain.CommunityRepository
	feedback domain.FeedbackRepository
	now      func() time.Time
}

func NewCommunityService(p domain.CommunityRepository, f domain.FeedbackRepository) *CommunityService {
	return &CommunityService{posts: p, feedback: f, now: time.Now}
}

func (s *CommunityService) Posts(ctx context.Context) ([]domain.CommunityPost, error) {
	return s.posts.ListPosts(ctx, maxListed)
}

func (s *CommunityService) CreatePost(ctx context.Context, p domain.CommunityPost) (domain.CommunityPost, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)
	p.LocationName = strings.TrimSpace(p.LocationName)
	if p.Title == "" || p.Content == "" {
		return domain.CommunityPost{}, fmt.Errorf("%w: title and content are required", domain.ErrInvalidInput)
	}
	if p.Category == "" {
		p.Category = domain.CategoryExperience
	}
	if !p.Category.Valid() {
		return domain.CommunityPost{}, fmt.Errorf("%w: category %q", domain.ErrInvalidInput, p.Category)
	}
	if strings.TrimSpace(p.UserID) == "" {
		p.UserID = "anonymous"
	}
	if strings.TrimSpace(p.UserName) == "" {
		p.UserName = "Traveler"
	}
	p.ID = uuid.NewString()
	p.Likes = 0
	p.CreatedAt = s.now().UTC()
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return domain.CommunityPost{}, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// Like increments and returns the like count.
func (s *CommunityService) Like(ctx context.Context, id string) (int, error) {
	return s.posts.LikePost(ctx, id)
}

func (s *CommunityService) SubmitFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error) {
	if f.Rating < 1 || f.Rating > 5 {
		return domain.Feedback{}, fmt.Errorf("%w: rating must be 1-5", domain.ErrInvalidInput)
	}
	known := make(map[string]struct{}, len(domain.FeedbackFeatures))
	for _, k := range domain.FeedbackFeatures {
		known[k] = struct{}{}
	}
	for _, h := range f.HelpfulFeatures {
		if _, ok := known[h]; !ok {
			return domain.Feedback{}, fmt.Errorf("%w: unknown feature %q", domain.ErrInvalidInput, h)
		}
	}
	if f.HelpfulFeatures == nil {
		f.HelpfulFeatures = []string{}
	}
	f.Comments = strings.TrimSpace(f.Comments)
	f.ID = uuid.NewString()
	f.CreatedAt = s.now().UTC()
	if err := s.feedback.SaveFeedback(ctx, f); err != nil {
		return domain.Feedback{}, fmt.Errorf("save feedback: %w", err)
	}
	return f, nil
}

func (s *CommunityService) FeedbackSummary(ctx context.Context) (domain.FeedbackSummary, error) {
	items, err := s.feedback.ListFeedback(ctx, maxListed)
	if err != nil {
		return domain.FeedbackSummary{}, err
	}
	n, avg, err := s.feedback.RatingStats(ctx)
	if err != nil {
		return domain.FeedbackSummary{}, err
	}
	return domain.FeedbackSummary{Count: n, AverageRating: math.Round(avg*10) / 10, Items: items}, nil
}
