package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

type registerDTO struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginDTO struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type contactDTO struct {
	UserID       string `json:"user_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Relationship string `json:"relationship"`
}

type locationDTO struct {
	UserID    string   `json:"user_id" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
}

type shareDTO struct {
	UserID          string   `json:"user_id" validate:"required"`
	Contacts        []string `json:"contacts" validate:"omitempty,dive,required"`
	DurationMinutes int      `json:"duration_minutes" validate:"gte=0,lte=1440"`
}

const userNotFound = "User not found"

func (h *Handlers) parseToken(raw string) (string, error) { return h.Users.ParseToken(raw) }

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in registerDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	u, err := h.Users.Register(r.Context(), app.RegisterInput{Name: in.Name, Email: in.Email, Phone: in.Phone, Password: in.Password})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user_id": u.ID, "message": "Registration successful"})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in loginDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	u, tok, err := h.Users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err, "Invalid credentials")
		return
	}
	resp := map[string]any{"success": true, "user": u}
	if tok != "" {
		resp["token"] = tok
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (h *Handlers) addContact(w http.ResponseWriter, r *http.Request) {
	var in contactDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	c, err := h.Users.AddContact(r.Context(), domain.EmergencyContact{
		UserID: in.UserID, Name: in.Name, Phone: in.Phone, Relationship: in.Relationship,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "contact_id": c.ID})
}

func (h *Handlers) listContacts(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Users.Contacts(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeError(w, err, "")
		return
	}
	if cs == nil {
		cs = []domain.EmergencyContact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contacts": cs})
}

// ---- location ----

func (h *Handlers) updateLocation(w http.ResponseWriter, r *http.Request) {
	var in locationDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	p, err := h.Locations.Update(r.Context(), domain.LocationPoint{
		UserID: in.UserID, Lat: *in.Latitude, Lng: *in.Longitude, Accuracy: in.Accuracy,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Location updated successfully",
		"timestamp": p.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handlers) shareLocation(w http.ResponseWriter, r *http.Request) {
	var in shareDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	sh, err := h.Locations.Share(r.Context(), in.UserID, in.Contacts, in.DurationMinutes)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"share_id":   sh.ID,
		"share_link": h.Locations.ShareLink(sh.ID),
		"expires_at": sh.ExpiresAt,
	})
}

func (h *Handlers) trackLocation(w http.ResponseWriter, r *http.Request) {
	t, err := h.Locations.Track(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Share not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "location": t.Location, "share_info": t.Share})
}

func (h *Handlers) locationHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", app.DefaultHistoryLimit)
	if err != nil {
		writeError(w, err, "")
		return
	}
	hist, err := h.Locations.History(r.Context(), chi.URLParam(r, "user"), limit)
	if err != nil {
		writeError(w, err, "")
		return
	}
	if hist == nil {
		hist = []domain.LocationPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "history": hist})
}

// ---- community, feedback, accommodations ----

type postDTO struct {
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	Title        string `json:"title" validate:"required"`
	Content      string `json:"content" validate:"required"`
	LocationName string `json:"location_name"`
	Category     string `json:"category" validate:"omitempty,oneof=experience safe warning info"`
}

type feedbackDTO struct {
	UserID          string   `json:"user_id"`
	Rating          int      `json:"rating" validate:"required,min=1,max=5"`
	HelpfulFeatures []string `json:"helpful_features"`
	Comments        string   `json:"comments"`
}

func (h *Handlers) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Community.Posts(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	if posts == nil {
		posts = []domain.CommunityPost{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "posts": posts})
}

func (h *Handlers) createPost(w http.ResponseWriter, r *http.Request) {
	var in postDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	p, err := h.Community.CreatePost(r.Context(), domain.CommunityPost{
		UserID: in.UserID, UserName: in.UserName, Title: in.Title, Content: in.Content,
		LocationName: in.LocationName, Category: domain.PostCategory(in.Category),
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post_id": p.ID, "message": "Post created successfully"})
}

func (h *Handlers) likePost(w http.ResponseWriter, r *http.Request) {
	n, err := h.Community.Like(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "likes": n})
}

func (h *Handlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var in feedbackDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	f, err := h.Community.SubmitFeedback(r.Context(), domain.Feedback{
		UserID: in.UserID, Rating: in.Rating, HelpfulFeatures: in.HelpfulFeatures, Comments: in.Comments,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "feedback_id": f.ID})
}

func (h *Handlers) feedbackSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Community.FeedbackSummary(r.Context())
	if err != nil {
		writeError(w, err, "")
		return
	}
	items := sum.Items
	if items == nil {
		items = []domain.Feedback{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"count":          sum.Count,
		"average_rating": sum.AverageRating,
		"feedback":       items,
	})
}

func (h *Handlers) searchAccommodations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "Valid lat and lng are required")
		return
	}
	lat, errLat := queryFloat(r, "lat", 0)
	lng, errLng := queryFloat(r, "lng", 0)
	radius, errRadius := queryInt(r, "radius", app.DefaultAccommodationRadiusM)
	if err := errors.Join(errLat, errLng, errRadius); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "Valid lat and lng are required")
		return
	}
	hotels, err := h.Accommodations.Search(r.Context(), lat, lng, radius)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCoordinates) {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "Valid lat and lng are required")
			return
		}
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"count":          len(hotels),
		"accommodations": hotels,
		"source":         "OpenStreetMap (live)",
	})
}

func (h *Handlers) accommodationTips(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, map[string]any{"success": true, "safety_tips": app.AccommodationSafetyTips})
}
