package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

type coordsDTO struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lng *float64 `json:"lng" validate:"required"`
}

type activateDTO struct {
	UserID            string     `json:"user_id" validate:"required"`
	Location          *coordsDTO `json:"location" validate:"required"`
	EmergencyContacts []string   `json:"emergency_contacts" validate:"omitempty,dive,required"`
	Email             string     `json:"email" validate:"omitempty,email"`
}

func (d activateDTO) activation() domain.SOSActivation {
	return domain.SOSActivation{
		UserID:            d.UserID,
		Location:          domain.Coords{Lat: *d.Location.Lat, Lng: *d.Location.Lng},
		EmergencyContacts: d.EmergencyContacts,
		Email:             d.Email,
	}
}

const sosNotFound = "SOS session not found"

func (h *Handlers) activateSOS(w http.ResponseWriter, r *http.Request) {
	var in activateDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	a, err := h.SOS.Activate(r.Context(), in.activation())
	if err != nil {
		writeError(w, err, "")
		return
	}
	resp := map[string]any{
		"success":        true,
		"sos_id":         a.ID,
		"message":        "SOS activated successfully",
		"police_station": a.Police,
		"status":         a.Status,
	}
	if a.Police != nil {
		resp["eta_minutes"] = a.Police.ETAMinutes
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) sosStatus(w http.ResponseWriter, r *http.Request) {
	a, err := h.SOS.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, sosNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sos": a})
}

func (h *Handlers) deactivateSOS(w http.ResponseWriter, r *http.Request) {
	a, err := h.SOS.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, sosNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "SOS deactivated successfully", "sos": a})
}

func (h *Handlers) sosHistory(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.SOS.History(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		writeError(w, err, "")
		return
	}
	if alerts == nil {
		alerts = []domain.SOSAlert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "alerts": alerts})
}

func (h *Handlers) armSOS(w http.ResponseWriter, r *http.Request) {
	var in activateDTO
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, "")
		return
	}
	st, err := h.SOS.Arm(r.Context(), in.activation())
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusAccepted, armResponse(st))
}

func (h *Handlers) armState(w http.ResponseWriter, r *http.Request) {
	st, err := h.SOS.ArmState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "countdown not found")
		return
	}
	writeJSON(w, http.StatusOK, armResponse(st))
}

func (h *Handlers) cancelArm(w http.ResponseWriter, r *http.Request) {
	st, err := h.SOS.CancelArm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "countdown not found")
		return
	}
	writeJSON(w, http.StatusOK, armResponse(st))
}

func armResponse(st app.ArmState) map[string]any {
	return map[string]any{"success": true, "countdown": st}
}
