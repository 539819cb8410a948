// Package client is a thin REST client for the SafeHer API. Calls are never
// retried: a failure is logged once and returned to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

// APIError is a non-2xx answer, decoded from the problem body when present.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api %d: %s", e.Status, orText(e.Title, http.StatusText(e.Status)))
}

type Client struct {
	base string
	hc   *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{base: strings.TrimRight(u.String(), "/"), hc: &http.Client{Timeout: timeout}}, nil
}

// ---- DTOs ----

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ActivateRequest struct {
	UserID            string   `json:"user_id"`
	Location          Location `json:"location"`
	EmergencyContacts []string `json:"emergency_contacts,omitempty"`
	Email             string   `json:"email,omitempty"`
}

type Activation struct {
	SOSID         string                 `json:"sos_id"`
	Message       string                 `json:"message"`
	Status        string                 `json:"status"`
	ETAMinutes    int                    `json:"eta_minutes"`
	PoliceStation *domain.PoliceDispatch `json:"police_station"`
}

type ChatRequest struct {
	UserID         string    `json:"user_id,omitempty"`
	Message        string    `json:"message"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UserLocation   *Location `json:"user_location,omitempty"`
}

type ChatReply struct {
	Response       string                  `json:"response"`
	ConversationID string                  `json:"conversation_id"`
	Timestamp      time.Time               `json:"timestamp"`
	Threat         domain.ThreatAssessment `json:"threat"`
}

// ---- Public API ----

func (c *Client) ActivateSOS(ctx context.Context, in ActivateRequest) (Activation, error) {
	var out Activation
	err := c.do(ctx, "activate_sos", http.MethodPost, "/api/sos/activate", nil, in, &out)
	return out, err
}

func (c *Client) SOSStatus(ctx context.Context, id string) (domain.SOSAlert, error) {
	var out struct {
		SOS domain.SOSAlert `json:"sos"`
	}
	err := c.do(ctx, "sos_status", http.MethodGet, "/api/sos/status/"+url.PathEscape(id), nil, nil, &out)
	return out.SOS, err
}

func (c *Client) SendChatMessage(ctx context.Context, in ChatRequest) (ChatReply, error) {
	var out ChatReply
	err := c.do(ctx, "chat_message", http.MethodPost, "/api/chat/message", nil, in, &out)
	return out, err
}

// PoliceStations lists stations near a point. radiusKm <= 0 uses the server default.
func (c *Client) PoliceStations(ctx context.Context, lat, lng, radiusKm float64) ([]domain.NearbyResource, error) {
	var out struct {
		Stations []domain.NearbyResource `json:"stations"`
	}
	err := c.do(ctx, "police_stations", http.MethodGet, "/api/resources/police-stations", nearbyParams(lat, lng, radiusKm), nil, &out)
	return out.Stations, err
}

func (c *Client) Hospitals(ctx context.Context, lat, lng, radiusKm float64) ([]domain.NearbyResource, error) {
	var out struct {
		Hospitals []domain.NearbyResource `json:"hospitals"`
	}
	err := c.do(ctx, "hospitals", http.MethodGet, "/api/resources/hospitals", nearbyParams(lat, lng, radiusKm), nil, &out)
	return out.Hospitals, err
}

func (c *Client) HotelSuggestions(ctx context.Context, req domain.SuggestionRequest) (domain.SuggestionResponse, error) {
	var out domain.SuggestionResponse
	err := c.do(ctx, "hotel_suggestions", http.MethodPost, "/api/hotels/suggestions", nil, req, &out)
	return out, err
}

func nearbyParams(lat, lng, radiusKm float64) url.Values {
	v := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	if radiusKm > 0 {
		v.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	return v
}

// ---- Internals ----

// do performs one request. Any failure is logged under op and returned unchanged.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in, out any) error {
	err := c.send(ctx, op, method, path, q, in, out)
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("path", path).Msg("api call failed")
	}
	return err
}

func (c *Client) send(ctx context.Context, op, method, path string, q url.Values, in, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("safeher_api", op, 0, time.Since(start))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("safeher_api", op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var p struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)); json.Unmarshal(b, &p) == nil {
			apiErr.Title, apiErr.Detail = p.Title, p.Detail
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

func orText(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
