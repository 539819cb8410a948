package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	"safeher_travel/internal/domain"
)

/********** chat **********/

func (r *Repo) SaveMessage(ctx context.Context, m domain.ChatMessage) error {
	_, err := r.db.ExecContext(ctx, insertMessageSQL,
		m.ID, m.ConversationID, m.UserID, m.Message, string(m.Sender), m.CreatedAt.UTC())
	return mapErr(err)
}

// ListConversation returns messages oldest first. A positive limit keeps only
// the newest limit messages.
func (r *Repo) ListConversation(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error) {
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, lastConversationSQL, conversationID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, listConversationSQL, conversationID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var sender string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Message, &sender, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = domain.Sender(sender)
		out = append(out, m)
	}
	return out, rows.Err()
}

/********** locations **********/

func (r *Repo) SaveLocation(ctx context.Context, p domain.LocationPoint) error {
	_, err := r.db.ExecContext(ctx, insertLocationSQL, p.ID, p.UserID, p.Lat, p.Lng, p.Accuracy, p.CreatedAt.UTC())
	return mapErr(err)
}

func scanLocation(s rowScanner) (domain.LocationPoint, error) {
	var p domain.LocationPoint
	err := s.Scan(&p.ID, &p.UserID, &p.Lat, &p.Lng, &p.Accuracy, &p.CreatedAt)
	return p, err
}

func (r *Repo) LatestLocation(ctx context.Context, userID string) (domain.LocationPoint, error) {
	p, err := scanLocation(r.db.QueryRowContext(ctx, latestLocationSQL, userID))
	return p, mapErr(err)
}

// LocationHistory returns the newest points first.
func (r *Repo) LocationHistory(ctx context.Context, userID string, limit int) ([]domain.LocationPoint, error) {
	rows, err := r.db.QueryContext(ctx, locationHistorySQL, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LocationPoint
	for rows.Next() {
		p, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

/********** community **********/

func (r *Repo) CreatePost(ctx context.Context, p domain.CommunityPost) error {
	_, err := r.db.ExecContext(ctx, insertPostSQL,
		p.ID, p.UserID, p.UserName, p.Title, p.Content, valStr(p.LocationName),
		string(p.Category), p.Likes, p.CreatedAt.UTC())
	return mapErr(err)
}

func (r *Repo) ListPosts(ctx context.Context, limit int) ([]domain.CommunityPost, error) {
	rows, err := r.db.QueryContext(ctx, listPostsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CommunityPost
	for rows.Next() {
		var p domain.CommunityPost
		var loc sql.NullString
		var cat string
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.Title, &p.Content, &loc, &cat, &p.Likes, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.LocationName = loc.String
		p.Category = domain.PostCategory(cat)
		out = append(out, p)
	}
	return out, rows.Err()
}

// LikePost increments in one transaction so the returned count is the post's own.
func (r *Repo) LikePost(ctx context.Context, id string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, likePostSQL, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, domain.ErrNotFound
	}
	var likes int
	if err := tx.QueryRowContext(ctx, postLikesSQL, id).Scan(&likes); err != nil {
		return 0, mapErr(err)
	}
	return likes, tx.Commit()
}

/********** feedback **********/

func (r *Repo) SaveFeedback(ctx context.Context, f domain.Feedback) error {
	features, _ := json.Marshal(f.HelpfulFeatures)
	_, err := r.db.ExecContext(ctx, insertFeedbackSQL,
		f.ID, valStr(f.UserID), f.Rating, string(features), valStr(f.Comments), f.CreatedAt.UTC())
	return mapErr(err)
}

func (r *Repo) ListFeedback(ctx context.Context, limit int) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, listFeedbackSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		var userID, comments sql.NullString
		var featuresRaw sql.RawBytes
		if err := rows.Scan(&f.ID, &userID, &f.Rating, &featuresRaw, &comments, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.UserID, f.Comments = userID.String, comments.String
		f.HelpfulFeatures = []string{}
		if len(featuresRaw) > 0 {
			_ = json.Unmarshal(featuresRaw, &f.HelpfulFeatures)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) RatingStats(ctx context.Context) (count int, avg float64, err error) {
	err = r.db.QueryRowContext(ctx, ratingStatsSQL).Scan(&count, &avg)
	return count, avg, err
}
