package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safeher_travel/internal/app"
	"safeher_travel/internal/domain"
)

const okResponse = `{"suggestions":[
 {"name":"Taj Coromandel","address":"MG Road, Chennai","googleReviewsSummary":"Guests praise 24/7 security.","safetyScore":9,"priceRange":"$$$"},
 {"name":"Hotel Savera","address":"Mylapore, Chennai","googleReviewsSummary":"Well lit, staffed lobby.","safetyScore":8,"priceRange":"$$"}
]}`

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		in      domain.SuggestionRequest
		want    string
		wantErr error
	}{
		{"empty concern gets default", domain.SuggestionRequest{Latitude: 13.08, Longitude: 80.27}, domain.DefaultSafetyConcern, nil},
		{"whitespace concern gets default", domain.SuggestionRequest{Latitude: 13.08, Longitude: 80.27, SafetyConcerns: "  "}, domain.DefaultSafetyConcern, nil},
		{"concern kept", domain.SuggestionRequest{Latitude: 13.08, Longitude: 80.27, SafetyConcerns: "late arrival"}, "late arrival", nil},
		{"latitude out of range", domain.SuggestionRequest{Latitude: 91, Longitude: 80.27}, "", domain.ErrInvalidCoordinates},
		{"longitude out of range", domain.SuggestionRequest{Latitude: 13, Longitude: -181}, "", domain.ErrInvalidCoordinates},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := app.Format(tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.SafetyConcerns)
			assert.Equal(t, tc.in.Latitude, got.Latitude)
			assert.Equal(t, tc.in.Longitude, got.Longitude)
		})
	}
}

func TestBuildPrompt_RendersVariablesAndConfig(t *testing.T) {
	p, err := app.BuildPrompt(domain.SuggestionRequest{Latitude: 13.0827, Longitude: 80.2707, SafetyConcerns: "travelling alone"})
	require.NoError(t, err)

	assert.Equal(t, "hotelSuggestionsPrompt", p.Name)
	assert.Contains(t, p.Text, "latitude: 13.0827, longitude: 80.2707")
	assert.Contains(t, p.Text, "(travelling alone)")
	assert.Contains(t, p.Text, "score 7 or higher")
	assert.Contains(t, p.Text, "never suggest other types of establishments such as hostels or motels")

	assert.Equal(t, []domain.SafetySetting{
		{Category: domain.HarmDangerousContent, Threshold: domain.BlockOnlyHigh},
		{Category: domain.HarmHarassment, Threshold: domain.BlockMediumAndAbove},
	}, p.SafetySettings)

	items := p.Schema.Properties["suggestions"].Items
	assert.ElementsMatch(t, []string{"name", "address", "googleReviewsSummary", "safetyScore", "priceRange"}, items.Required)
	assert.Equal(t, 1.0, *items.Properties["safetyScore"].Minimum)
	assert.Equal(t, 10.0, *items.Properties["safetyScore"].Maximum)
}

func TestSuggest_HappyPathKeepsOrder(t *testing.T) {
	m := &fakeSuggestModel{raw: []byte(okResponse)}
	svc := app.NewSuggestionService(m, false)

	out, err := svc.Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13.08, Longitude: 80.27})
	require.NoError(t, err)
	require.Len(t, out.Suggestions, 2)
	assert.Equal(t, "Taj Coromandel", out.Suggestions[0].Name)
	assert.Equal(t, "Guests praise 24/7 security.", out.Suggestions[0].ReviewSummary)
	assert.False(t, out.Suggestions[0].Flagged)
	assert.Equal(t, 1, m.calls)
	assert.Contains(t, m.prompt.Text, domain.DefaultSafetyConcern)
}

func TestSuggest_NoStructuredOutputIsFatalAndNotRetried(t *testing.T) {
	for _, m := range []*fakeSuggestModel{
		{raw: nil},
		{raw: []byte("   ")},
		{err: domain.ErrNoStructuredOutput},
	} {
		svc := app.NewSuggestionService(m, false)
		_, err := svc.Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
		assert.ErrorIs(t, err, domain.ErrNoStructuredOutput)
		assert.Equal(t, 1, m.calls)
	}
}

func TestSuggest_TransportErrorWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	m := &fakeSuggestModel{err: boom}
	_, err := app.NewSuggestionService(m, false).Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.calls)
}

func TestSuggest_MalformedOutputRejected(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"suggestions":`,
		"missing field":     `{"suggestions":[{"name":"A","address":"B","googleReviewsSummary":"C","safetyScore":8}]}`,
		"score above range": `{"suggestions":[{"name":"A","address":"B","googleReviewsSummary":"C","safetyScore":11,"priceRange":"$"}]}`,
		"score below range": `{"suggestions":[{"name":"A","address":"B","googleReviewsSummary":"C","safetyScore":0,"priceRange":"$"}]}`,
		"score not integer": `{"suggestions":[{"name":"A","address":"B","googleReviewsSummary":"C","safetyScore":"high","priceRange":"$"}]}`,
		"fractional score":  `{"suggestions":[{"name":"A","address":"B","googleReviewsSummary":"C","safetyScore":8.5,"priceRange":"$"}]}`,
		"no suggestions":    `{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := app.NewSuggestionService(&fakeSuggestModel{raw: []byte(raw)}, false).
				Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
			assert.ErrorIs(t, err, domain.ErrMalformedOutput)
		})
	}
}

func TestSuggest_IntegralFloatScoreAccepted(t *testing.T) {
	raw := `{"suggestions":[{"name":"Hotel Savera","address":"Mylapore","googleReviewsSummary":"ok","safetyScore":8.0,"priceRange":"$$"}]}`
	out, err := app.NewSuggestionService(&fakeSuggestModel{raw: []byte(raw)}, false).
		Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
	require.NoError(t, err)
	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, 8, out.Suggestions[0].SafetyScore)
	assert.False(t, out.Suggestions[0].Flagged)
}

const lowScoreResponse = `{"suggestions":[
 {"name":"Safe Inn","address":"A","googleReviewsSummary":"ok","safetyScore":8,"priceRange":"$$"},
 {"name":"Budget Lodge","address":"B","googleReviewsSummary":"mixed","safetyScore":5,"priceRange":"$"}
]}`

func TestSuggest_LowScoresFlaggedNotFiltered(t *testing.T) {
	out, err := app.NewSuggestionService(&fakeSuggestModel{raw: []byte(lowScoreResponse)}, false).
		Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
	require.NoError(t, err)
	require.Len(t, out.Suggestions, 2)
	assert.False(t, out.Suggestions[0].Flagged)
	assert.True(t, out.Suggestions[1].Flagged)
	assert.Equal(t, []string{"Budget Lodge"}, names(out.BelowThreshold()))
}

func TestSuggest_StrictModeRejectsLowScores(t *testing.T) {
	_, err := app.NewSuggestionService(&fakeSuggestModel{raw: []byte(lowScoreResponse)}, true).
		Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
	assert.ErrorIs(t, err, domain.ErrPolicyViolation)
}

func TestSuggest_InvalidCoordinatesSkipModel(t *testing.T) {
	m := &fakeSuggestModel{raw: []byte(okResponse)}
	_, err := app.NewSuggestionService(m, false).Suggest(context.Background(), domain.SuggestionRequest{Latitude: 100, Longitude: 80})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
	assert.Zero(t, m.calls)
}

func TestSuggest_NoModelConfigured(t *testing.T) {
	_, err := app.NewSuggestionService(nil, false).Suggest(context.Background(), domain.SuggestionRequest{Latitude: 13, Longitude: 80})
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func names(hs []domain.HotelSuggestion) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, strings.TrimSpace(h.Name))
	}
	return out
}
