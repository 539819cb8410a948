package app_test

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"safeher_travel/internal/domain"
)

// ---- cache ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	gets  int
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) DelPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	return nil
}

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// ---- resources ----

type fakeResources struct {
	mu       sync.Mutex
	rs       []domain.Resource
	listErr  error
	calls    int
	lastBox  *domain.Bounds
	misses   []string
	upserted []domain.Resource
}

func (f *fakeResources) UpsertResources(_ context.Context, rs []domain.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, rs...)
	return nil
}

func (f *fakeResources) LogMiss(_ context.Context, region string, kind domain.ResourceKind, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses = append(f.misses, region+"/"+string(kind)+"/"+reason)
	return nil
}

func (f *fakeResources) ListResources(_ context.Context, kind domain.ResourceKind, within *domain.Bounds) ([]domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastBox = within
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Resource
	for _, r := range f.rs {
		if r.Kind != kind {
			continue
		}
		if within != nil && (r.Lat < within.MinLat || r.Lat > within.MaxLat || r.Lng < within.MinLng || r.Lng > within.MaxLng) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeResources) CountResources(_ context.Context, kind domain.ResourceKind) (int, error) {
	n := 0
	for _, r := range f.rs {
		if r.Kind == kind {
			n++
		}
	}
	return n, nil
}

type fakeIndex struct {
	res     domain.NearbyResult
	err     error
	indexed []domain.Resource
}

func (f *fakeIndex) IndexResources(_ context.Context, rs []domain.Resource) error {
	f.indexed = append(f.indexed, rs...)
	return f.err
}

func (f *fakeIndex) Nearby(_ context.Context, _ domain.NearbyQuery) (domain.NearbyResult, error) {
	return f.res, f.err
}

type fakePOIs struct {
	byKind map[domain.ResourceKind][]map[string]any
	err    error
	calls  int
}

func (f *fakePOIs) SearchPOIs(_ context.Context, kind domain.ResourceKind, _, _ float64, _ int) ([]map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byKind[kind], nil
}

// ---- models ----

type fakeSuggestModel struct {
	raw    []byte
	err    error
	calls  int
	prompt domain.Prompt
}

func (f *fakeSuggestModel) GenerateStructured(_ context.Context, p domain.Prompt) ([]byte, error) {
	f.calls++
	f.prompt = p
	return f.raw, f.err
}

type fakeChatModel struct {
	reply   string
	err     error
	system  string
	history []domain.ChatTurn
}

func (f *fakeChatModel) Reply(_ context.Context, system string, history []domain.ChatTurn, _ string) (string, error) {
	f.system, f.history = system, history
	return f.reply, f.err
}

// ---- sos ----

type fakeSOSRepo struct {
	mu     sync.Mutex
	alerts map[string]domain.SOSAlert
}

func newFakeSOSRepo() *fakeSOSRepo { return &fakeSOSRepo{alerts: map[string]domain.SOSAlert{}} }

func (f *fakeSOSRepo) CreateAlert(_ context.Context, a domain.SOSAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts[a.ID] = a
	return nil
}

func (f *fakeSOSRepo) ResolveAlert(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status, a.ResolvedAt = domain.SOSResolved, &at
	f.alerts[id] = a
	return nil
}

func (f *fakeSOSRepo) GetAlert(_ context.Context, id string) (domain.SOSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return domain.SOSAlert{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeSOSRepo) ListAlerts(_ context.Context, userID string, limit int) ([]domain.SOSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SOSAlert
	for _, a := range f.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivatedAt.After(out[j].ActivatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSOSRepo) CountAlerts(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resolved := 0
	for _, a := range f.alerts {
		if a.Status == domain.SOSResolved {
			resolved++
		}
	}
	return len(f.alerts), resolved, nil
}

type fakeSessions struct {
	mu     sync.Mutex
	sos    map[string]domain.SOSAlert
	shares map[string]domain.LocationShare
	ttl    time.Duration
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sos: map[string]domain.SOSAlert{}, shares: map[string]domain.LocationShare{}}
}

func (f *fakeSessions) PutSOS(_ context.Context, a domain.SOSAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sos[a.ID] = a
	return nil
}

func (f *fakeSessions) GetSOS(_ context.Context, id string) (domain.SOSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.sos[id]
	if !ok {
		return domain.SOSAlert{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeSessions) PutShare(_ context.Context, s domain.LocationShare, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shares[s.ID] = s
	f.ttl = ttl
	return nil
}

func (f *fakeSessions) GetShare(_ context.Context, id string) (domain.LocationShare, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shares[id]
	if !ok {
		return domain.LocationShare{}, domain.ErrNotFound
	}
	return s, nil
}

type sentMsg struct{ To, Subject, Body string }

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMsg
	err  error
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{To: to, Body: body})
	return f.err
}

func (f *fakeSender) SendEmail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{To: to, Subject: subject, Body: body})
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.SOSEvent
}

func (f *fakePublisher) Publish(_ context.Context, e domain.SOSEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// ---- users, chat, location, community ----

type fakeUsers struct {
	byID     map[string]domain.User
	contacts []domain.EmergencyContact
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]domain.User{}} }

func (f *fakeUsers) CreateUser(_ context.Context, u domain.User) error {
	for _, x := range f.byID {
		if x.Email == u.Email || x.Phone == u.Phone {
			return domain.ErrConflict
		}
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeUsers) CountUsers(_ context.Context) (int, error) { return len(f.byID), nil }

func (f *fakeUsers) AddContact(_ context.Context, c domain.EmergencyContact) error {
	f.contacts = append(f.contacts, c)
	return nil
}

func (f *fakeUsers) ListContacts(_ context.Context, userID string) ([]domain.EmergencyContact, error) {
	var out []domain.EmergencyContact
	for _, c := range f.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeChatRepo struct {
	msgs []domain.ChatMessage
}

func (f *fakeChatRepo) SaveMessage(_ context.Context, m domain.ChatMessage) error {
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeChatRepo) ListConversation(_ context.Context, id string, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range f.msgs {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeLocations struct {
	points []domain.LocationPoint
}

func (f *fakeLocations) SaveLocation(_ context.Context, p domain.LocationPoint) error {
	f.points = append(f.points, p)
	return nil
}

func (f *fakeLocations) LatestLocation(_ context.Context, userID string) (domain.LocationPoint, error) {
	for i := len(f.points) - 1; i >= 0; i-- {
		if f.points[i].UserID == userID {
			return f.points[i], nil
		}
	}
	return domain.LocationPoint{}, domain.ErrNotFound
}

func (f *fakeLocations) LocationHistory(_ context.Context, userID string, limit int) ([]domain.LocationPoint, error) {
	var out []domain.LocationPoint
	for i := len(f.points) - 1; i >= 0 && len(out) < limit; i-- {
		if f.points[i].UserID == userID {
			out = append(out, f.points[i])
		}
	}
	return out, nil
}

type fakeCommunity struct {
	posts    []domain.CommunityPost
	feedback []domain.Feedback
}

func (f *fakeCommunity) CreatePost(_ context.Context, p domain.CommunityPost) error {
	f.posts = append(f.posts, p)
	return nil
}

func (f *fakeCommunity) ListPosts(_ context.Context, limit int) ([]domain.CommunityPost, error) {
	out := append([]domain.CommunityPost(nil), f.posts...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommunity) LikePost(_ context.Context, id string) (int, error) {
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].Likes++
			return f.posts[i].Likes, nil
		}
	}
	return 0, domain.ErrNotFound
}

func (f *fakeCommunity) SaveFeedback(_ context.Context, fb domain.Feedback) error {
	f.feedback = append(f.feedback, fb)
	return nil
}

func (f *fakeCommunity) ListFeedback(_ context.Context, limit int) ([]domain.Feedback, error) {
	return f.feedback, nil
}

func (f *fakeCommunity) RatingStats(_ context.Context) (int, float64, error) {
	if len(f.feedback) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, fb := range f.feedback {
		sum += fb.Rating
	}
	return len(f.feedback), float64(sum) / float64(len(f.feedback)), nil
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

// ---- helpers ----

var chennai = domain.Coords{Lat: 13.0827, Lng: 80.2707}

func police(id, name string, lat, lng float64, phone string) domain.Resource {
	return domain.Resource{ID: id, Kind: domain.KindPolice, Name: name, Lat: lat, Lng: lng, Phone: phone, Is24x7: true}
}

func ptr[T any](v T) *T { return &v }
