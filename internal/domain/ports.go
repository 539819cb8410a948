package domain

import (
	"context"
	"time"
)

type ResourceRepository interface {
	// Write paths
	UpsertResources(ctx context.Context, rs []Resource) error
	LogMiss(ctx context.Context, region string, kind ResourceKind, status int, reason string) error

	// Read paths
	ListResources(ctx context.Context, kind ResourceKind, within *Bounds) ([]Resource, error)
	CountResources(ctx context.Context, kind ResourceKind) (int, error)
}

// ResourceIndex is a geo search index over resources.
type ResourceIndex interface {
	IndexResources(ctx context.Context, rs []Resource) error
	Nearby(ctx context.Context, q NearbyQuery) (NearbyResult, error)
}

type SOSRepository interface {
	CreateAlert(ctx context.Context, a SOSAlert) error
	ResolveAlert(ctx context.Context, id string, at time.Time) error
	GetAlert(ctx context.Context, id string) (SOSAlert, error)
	ListAlerts(ctx context.Context, userID string, limit int) ([]SOSAlert, error)
	CountAlerts(ctx context.Context) (total, resolved int, err error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CountUsers(ctx context.Context) (int, error)
	AddContact(ctx context.Context, c EmergencyContact) error
	ListContacts(ctx context.Context, userID string) ([]EmergencyContact, error)
}

type ChatRepository interface {
	SaveMessage(ctx context.Context, m ChatMessage) error
	ListConversation(ctx context.Context, conversationID string, limit int) ([]ChatMessage, error)
}

type LocationRepository interface {
	SaveLocation(ctx context.Context, p LocationPoint) error
	LatestLocation(ctx context.Context, userID string) (LocationPoint, error)
	LocationHistory(ctx context.Context, userID string, limit int) ([]LocationPoint, error)
}

type CommunityRepository interface {
	CreatePost(ctx context.Context, p CommunityPost) error
	ListPosts(ctx context.Context, limit int) ([]CommunityPost, error)
	LikePost(ctx context.Context, id string) (int, error)
}

type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, f Feedback) error
	ListFeedback(ctx context.Context, limit int) ([]Feedback, error)
	RatingStats(ctx context.Context) (count int, avg float64, err error)
}

// Pinger reports storage liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SOSSessionStore keeps live SOS sessions.
type SOSSessionStore interface {
	PutSOS(ctx context.Context, a SOSAlert) error
	GetSOS(ctx context.Context, id string) (SOSAlert, error)
}

// ShareStore keeps location shares until they expire.
type ShareStore interface {
	PutShare(ctx context.Context, s LocationShare, ttl time.Duration) error
	GetShare(ctx context.Context, id string) (LocationShare, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, e SOSEvent) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, handle func(context.Context, SOSEvent) error) error
}

// SuggestionModel produces raw structured JSON for a prompt.
type SuggestionModel interface {
	GenerateStructured(ctx context.Context, p Prompt) ([]byte, error)
}

type ChatModel interface {
	Reply(ctx context.Context, system string, history []ChatTurn, message string) (string, error)
}

// POISource returns raw OSM elements near a point.
type POISource interface {
	SearchPOIs(ctx context.Context, kind ResourceKind, lat, lng float64, radiusM int) ([]map[string]any, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}
