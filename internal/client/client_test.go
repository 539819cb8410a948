package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeher_travel/internal/client"
	"safeher_travel/internal/domain"
)

func newClient(t *testing.T, h http.HandlerFunc) *client.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := client.New(ts.URL+"/", 0)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := client.New("not a url", 0)
	assert.Error(t, err)
}

func TestHotelSuggestions(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hotels/suggestions", r.URL.Path)
		var in domain.SuggestionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 9.93, in.Latitude)
		assert.Equal(t, "late arrival", in.SafetyConcerns)
		_, _ = w.Write([]byte(`{"suggestions":[{"name":"Heritage Madurai","address":"Melakkal Main Rd","googleReviewsSummary":"Quiet and staffed 24h","safetyScore":8,"priceRange":"$$"}]}`))
	})

	out, err := c.HotelSuggestions(context.Background(), domain.SuggestionRequest{Latitude: 9.93, Longitude: 78.12, SafetyConcerns: "late arrival"})
	require.NoError(t, err)
	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, "Quiet and staffed 24h", out.Suggestions[0].ReviewSummary)
	assert.Equal(t, 8, out.Suggestions[0].SafetyScore)
}

func TestErrorsAreReturnedWithoutRetry(t *testing.T) {
	var hits int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Bad Gateway","status":502,"detail":"model returned no structured output"}`))
	})

	_, err := c.HotelSuggestions(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "model returned no structured output", apiErr.Detail)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestPoliceStationsAndHospitals(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "13.08", q.Get("lat"))
		switch r.URL.Path {
		case "/api/resources/police-stations":
			assert.Equal(t, "5", q.Get("radius"))
			_, _ = w.Write([]byte(`{"success":true,"count":1,"stations":[{"name":"Egmore Police Station","distance_km":1.1}]}`))
		case "/api/resources/hospitals":
			assert.Empty(t, q.Get("radius"))
			_, _ = w.Write([]byte(`{"success":true,"count":0,"hospitals":[]}`))
		default:
			http.NotFound(w, r)
		}
	})

	st, err := c.PoliceStations(context.Background(), 13.08, 80.27, 5)
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.Equal(t, "Egmore Police Station", st[0].Name)
	assert.Equal(t, 1.1, st[0].DistanceKm)

	hs, err := c.Hospitals(context.Background(), 13.08, 80.27, 0)
	require.NoError(t, err)
	assert.Empty(t, hs)
}

func TestSOSRoundTrip(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sos/activate":
			var in client.ActivateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "u-7", in.UserID)
			_, _ = w.Write([]byte(`{"success":true,"sos_id":"sos-9","status":"active","eta_minutes":6,"police_station":{"name":"Emergency Dispatch","phone":"100"}}`))
		case "/api/sos/status/sos-9":
			_, _ = w.Write([]byte(`{"success":true,"sos":{"id":"sos-9","status":"active"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":404,"detail":"SOS session not found"}`))
		}
	})
	ctx := context.Background()

	act, err := c.ActivateSOS(ctx, client.ActivateRequest{UserID: "u-7", Location: client.Location{Lat: 13.08, Lng: 80.27}})
	require.NoError(t, err)
	assert.Equal(t, "sos-9", act.SOSID)
	assert.Equal(t, 6, act.ETAMinutes)
	require.NotNil(t, act.PoliceStation)

	a, err := c.SOSStatus(ctx, "sos-9")
	require.NoError(t, err)
	assert.Equal(t, domain.SOSActive, a.Status)

	_, err = c.SOSStatus(ctx, "missing")
	assert.EqualError(t, err, "api 404: SOS session not found")
}

func TestSendChatMessage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in client.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "is this area safe", in.Message)
		require.NotNil(t, in.UserLocation)
		_, _ = w.Write([]byte(`{"success":true,"response":"Stay in lit areas.","conversation_id":"conv-1","threat":{"threat_level":"low"}}`))
	})

	out, err := c.SendChatMessage(context.Background(), client.ChatRequest{
		Message: "is this area safe", UserLocation: &client.Location{Lat: 11.0, Lng: 76.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "conv-1", out.ConversationID)
	assert.Equal(t, domain.ThreatLow, out.Threat.Level)
}
