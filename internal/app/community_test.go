package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

func TestCreatePostAndLike(t *testing.T) {
	store := &fakeCommunity{}
	svc := app.NewCommunityService(store, store)
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, domain.CommunityPost{Title: " Marina at night ", Content: "Well lit, police patrol."})
	require.NoError(t, err)
	assert.Equal(t, "Marina at night", p.Title)
	assert.Equal(t, domain.CategoryExperience, p.Category)
	assert.Equal(t, "anonymous", p.UserID)
	assert.Equal(t, "Traveler", p.UserName)

	n, err := svc.Like(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = svc.Like(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreatePost(ctx, domain.CommunityPost{Title: "t", Content: "c", Category: "rumour"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.CreatePost(ctx, domain.CommunityPost{Title: "t"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFeedback(t *testing.T) {
	store := &fakeCommunity{}
	svc := app.NewCommunityService(store, store)
	ctx := context.Background()

	_, err := svc.SubmitFeedback(ctx, domain.Feedback{Rating: 6})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.SubmitFeedback(ctx, domain.Feedback{Rating: 4, HelpfulFeatures: []string{"Teleport"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, r := range []int{5, 4, 4} {
		_, err := svc.SubmitFeedback(ctx, domain.Feedback{Rating: r, HelpfulFeatures: []string{"SOS Signal"}})
		require.NoError(t, err)
	}
	sum, err := svc.FeedbackSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.Equal(t, 4.3, sum.AverageRating)
	assert.Len(t, sum.Items, 3)
}
