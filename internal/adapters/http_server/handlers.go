// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

type SOS interface {
	Activate(ctx context.Context, in domain.SOSActivation) (domain.SOSAlert, error)
	Status(ctx context.Context, id string) (domain.SOSAlert, error)
	Deactivate(ctx context.Context, id string) (domain.SOSAlert, error)
	History(ctx context.Context, userID string) ([]domain.SOSAlert, error)
	Arm(ctx context.Context, in domain.SOSActivation) (app.ArmState, error)
	CancelArm(ctx context.Context, id string) (app.ArmState, error)
	ArmState(ctx context.Context, id string) (app.ArmState, error)
}

type Chat interface {
	SendMessage(ctx context.Context, in app.ChatRequest) (app.ChatReply, error)
	Conversation(ctx context.Context, id string) ([]domain.ChatMessage, error)
}

type Resources interface {
	Nearby(ctx context.Context, q domain.NearbyQuery) (domain.NearbyResult, error)
	SafeZones(ctx context.Context, lat, lng float64) (domain.NearbyResult, error)
}

type Suggestions interface {
	Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.SuggestionResponse, error)
}

type Users interface {
	Register(ctx context.Context, in app.RegisterInput) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, string, error)
	Profile(ctx context.Context, id string) (domain.User, error)
	AddContact(ctx context.Context, c domain.EmergencyContact) (domain.EmergencyContact, error)
	Contacts(ctx context.Context, userID string) ([]domain.EmergencyContact, error)
	ParseToken(raw string) (string, error)
}

type Locations interface {
	Update(ctx context.Context, p domain.LocationPoint) (domain.LocationPoint, error)
	Share(ctx context.Context, userID string, contacts []string, minutes int) (domain.LocationShare, error)
	ShareLink(id string) string
	Track(ctx context.Context, shareID string) (app.Tracking, error)
	History(ctx context.Context, userID string, limit int) ([]domain.LocationPoint, error)
}

type Community interface {
	Posts(ctx context.Context) ([]domain.CommunityPost, error)
	CreatePost(ctx context.Context, p domain.CommunityPost) (domain.CommunityPost, error)
	Like(ctx context.Context, id string) (int, error)
	SubmitFeedback(ctx context.Context, f domain.Feedback) (domain.Feedback, error)
	FeedbackSummary(ctx context.Context) (domain.FeedbackSummary, error)
}

type Accommodations interface {
	Search(ctx context.Context, lat, lng float64, radiusM int) ([]domain.Accommodation, error)
}

type Platform interface {
	Services() []app.ServiceStatus
	Health(ctx context.Context) app.Health
	Statistics(ctx context.Context) (app.Statistics, error)
}

type Handlers struct {
	SOS            SOS
	Chat           Chat
	Resources      Resources
	Suggestions    Suggestions
	Users          Users
	Locations      Locations
	Community      Community
	Accommodations Accommodations
	Platform       Platform
	Regions        []string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

var validate = validator.New()

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", h.index)
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/config", h.config)
		r.Get("/statistics", h.statistics)

		r.Route("/sos", func(r chi.Router) {
			r.Post("/activate", h.activateSOS)
			r.Get("/status/{id}", h.sosStatus)
			r.Post("/deactivate/{id}", h.deactivateSOS)
			r.Get("/history/{user}", h.sosHistory)
			r.Post("/arm", h.armSOS)
			r.Get("/arm/{id}", h.armState)
			r.Post("/arm/{id}/cancel", h.cancelArm)
		})
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", h.chatMessage)
			r.Get("/conversation/{id}", h.conversation)
			r.Get("/safety-tips", h.safetyTips)
			r.Post("/analyze", h.analyzeThreat)
			r.Post("/demo", h.demoChat)
		})
		r.Route("/resources", func(r chi.Router) {
			r.Get("/police-stations", h.nearby(domain.KindPolice, "stations"))
			r.Get("/hospitals", h.nearby(domain.KindHospital, "hospitals"))
			r.Get("/safe-zones", h.safeZones)
			r.Get("/emergency-numbers", h.emergencyNumbers)
		})
		r.Post("/hotels/suggestions", h.hotelSuggestions)

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Get("/profile/{id}", h.profile)
			r.With(RequireAuth(h.parseToken)).Get("/me", h.me)
			r.Post("/emergency-contacts", h.addContact)
			r.Get("/emergency-contacts/{user}", h.listContacts)
		})
		r.Route("/location", func(r chi.Router) {
			r.Post("/update", h.updateLocation)
			r.Post("/share", h.shareLocation)
			r.Get("/track/{id}", h.trackLocation)
			r.Get("/history/{user}", h.locationHistory)
		})
		r.Route("/community", func(r chi.Router) {
			r.Get("/posts", h.listPosts)
			r.Post("/posts", h.createPost)
			r.Post("/posts/{id}/like", h.likePost)
		})
		r.Get("/feedback", h.feedbackSummary)
		r.Post("/feedback", h.submitFeedback)
		r.Route("/accommodations", func(r chi.Router) {
			r.Get("/search", h.searchAccommodations)
			r.Get("/safety-tips", h.accommodationTips)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors to problem responses. detail replaces the
// message for 401 and 404 when set.
func writeError(w http.ResponseWriter, err error, detail string) {
	switch {
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrNoStructuredOutput),
		errors.Is(err, domain.ErrMalformedOutput), errors.Is(err, domain.ErrPolicyViolation):
		log.Warn().Err(err).Msg("upstream failure")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	case errors.Is(err, domain.ErrModelUnavailable), errors.Is(err, app.ErrTokensDisabled):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidCoordinates):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", orDefault(detail, "unauthorized"))
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", orDefault(detail, "resource not found"))
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
	}
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// decodeJSON reads and validates a request body.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable answers 304 when the client already holds this version.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cacheable body")
	}
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
	}
	return f, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

// ---- platform ----

func (h *Handlers) index(w http.ResponseWriter, _ *http.Request) {
	features := map[string]bool{
		"sos_alerts":           true,
		"location_tracking":    true,
		"emergency_resources":  true,
		"accommodation_search": true,
		"community":            true,
	}
	for _, s := range h.Platform.Services() {
		features[s.Name] = s.Enabled
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Safe Her Travel API is running",
		"version":  "2.0",
		"status":   "healthy",
		"features": features,
	})
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Platform.Health(r.Context()))
}

func (h *Handlers) config(w http.ResponseWriter, _ *http.Request) {
	features := make([]string, 0, len(h.Platform.Services()))
	for _, s := range h.Platform.Services() {
		if s.Enabled {
			features = append(features, s.Name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"emergency_numbers": app.EmergencyNumbers,
		"features":          features,
		"regions":           h.Regions,
	})
}

func (h *Handlers) statistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.Platform.Statistics(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "statistics": st})
}
