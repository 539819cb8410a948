package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

type chatDTO struct {
	UserID         string     `json:"user_id"`
	Message        string     `json:"message" validate:"required"`
	ConversationID string     `json:"conversation_id"`
	UserLocation   *coordsDTO `json:"user_location"`
}

type messageDTO struct {
	Message string `json:"message" validate:"required"`
}

type suggestionDTO struct {
	Latitude       *float64 `json:"latitude" validate:"required"`
	Longitude      *float64 `json:"longitude" validate:"required"`
	SafetyConcerns string   `json:"safetyConcerns"`
}

func (h *Handlers) chatMessage(w http.ResponseWriter, r *http.Request) {
	var in chatDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	req := app.ChatRequest{UserID: in.UserID, ConversationID: in.ConversationID, Message: in.Message}
	if in.UserLocation != nil && in.UserLocation.Lat != nil && in.UserLocation.Lng != nil {
		req.Location = &domain.Coords{Lat: *in.UserLocation.Lat, Lng: *in.UserLocation.Lng}
	}
	out, err := h.Chat.SendMessage(r.Context(), req)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		app.ChatReply
	}{true, out})
}

func (h *Handlers) conversation(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Chat.Conversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "")
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": msgs})
}

func (h *Handlers) safetyTips(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, map[string]any{"success": true, "tips": app.SafetyTips})
}

func (h *Handlers) analyzeThreat(w http.ResponseWriter, r *http.Request) {
	var in messageDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		domain.ThreatAssessment
	}{true, app.AnalyzeThreat(in.Message)})
}

func (h *Handlers) demoChat(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": app.DemoReply(in.Message)})
}

// hotelSuggestions returns the model's suggestions unchanged, in model order.
func (h *Handlers) hotelSuggestions(w http.ResponseWriter, r *http.Request) {
	var in suggestionDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	out, err := h.Suggestions.Suggest(r.Context(), domain.SuggestionRequest{
		Latitude: *in.Latitude, Longitude: *in.Longitude, SafetyConcerns: in.SafetyConcerns,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	if out.Suggestions == nil {
		out.Suggestions = []domain.HotelSuggestion{}
	}
	writeJSON(w, http.StatusOK, out)
}
