package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const HotelSuggestionsPromptName = "hotelSuggestionsPrompt"

var hotelSuggestionsTmpl = template.Must(template.New(HotelSuggestionsPromptName).Parse(
	`You are a safety-conscious travel assistant specializing in Tamil Nadu, India. A user is in distress and needs a safe hotel recommendation in the region.
Based on the user's current location (latitude: {{.Latitude}}, longitude: {{.Longitude}}) and any specific safety concerns they have ({{.SafetyConcerns}}), suggest a few reputable hotels in Tamil Nadu.

Consider these factors when selecting hotels:
*   Proximity to the user's location within Tamil Nadu.
*   Positive Google reviews, particularly regarding safety, security, and cleanliness in the TN context.
*   Hotel safety scores from reputable sources. You should only suggest hotels that score 7 or higher.
*   Price range appropriate for someone in an emergency situation.

Make sure the Google review summary focuses on the most recent reviews and extracts any mentions of the hotel's safety and security.
Remember to only suggest registered hotels, never suggest other types of establishments such as hostels or motels.`))

func fptr(f float64) *float64 { return &f }

// SuggestionSchema is the declared output shape of the hotel suggestion prompt.
var SuggestionSchema = &domain.Schema{
	Type:     domain.TypeObject,
	Required: []string{"suggestions"},
	Properties: map[string]*domain.Schema{
		"suggestions": {
			Type:        domain.TypeArray,
			Description: "A list of suggested hotels.",
			Items: &domain.Schema{
				Type:     domain.TypeObject,
				Order:    []string{"name", "address", "googleReviewsSummary", "safetyScore", "priceRange"},
				Required: []string{"name", "address", "googleReviewsSummary", "safetyScore", "priceRange"},
				Properties: map[string]*domain.Schema{
					"name":                 {Type: domain.TypeString, Description: "The name of the hotel."},
					"address":              {Type: domain.TypeString, Description: "The address of the hotel."},
					"googleReviewsSummary": {Type: domain.TypeString, Description: "A summary of Google reviews for the hotel, focusing on safety and cleanliness."},
					"safetyScore": {
						Type:        domain.TypeInteger,
						Description: "A score from 1-10 indicating the safety of the hotel, based on reviews and location.",
						Minimum:     fptr(1),
						Maximum:     fptr(10),
					},
					"priceRange": {Type: domain.TypeString, Description: "The price range of the hotel (e.g., $, $$, $$$)."},
				},
			},
		},
	},
}

// SuggestionSafety is sent with every suggestion prompt.
var SuggestionSafety = []domain.SafetySetting{
	{Category: domain.HarmDangerousContent, Threshold: domain.BlockOnlyHigh},
	{Category: domain.HarmHarassment, Threshold: domain.BlockMediumAndAbove},
}

type SuggestionService struct {
	model  domain.SuggestionModel
	schema *gojsonschema.Schema
	strict bool
}

// NewSuggestionService panics if SuggestionSchema does not compile.
func NewSuggestionService(m domain.SuggestionModel, strict bool) *SuggestionService {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(SuggestionSchema.JSONSchema()))
	if err != nil {
		panic(fmt.Sprintf("suggestion schema: %v", err))
	}
	return &SuggestionService{model: m, schema: s, strict: strict}
}

// Format validates coordinates and fills in the default safety concern.
func Format(req domain.SuggestionRequest) (domain.SuggestionRequest, error) {
	if !domain.ValidCoords(req.Latitude, req.Longitude) {
		return domain.SuggestionRequest{}, domain.ErrInvalidCoordinates
	}
	return req.Normalized(), nil
}

// BuildPrompt renders the hotel suggestion prompt for an already formatted request.
func BuildPrompt(req domain.SuggestionRequest) (domain.Prompt, error) {
	var b bytes.Buffer
	if err := hotelSuggestionsTmpl.Execute(&b, req); err != nil {
		return domain.Prompt{}, fmt.Errorf("render prompt: %w", err)
	}
	return domain.Prompt{
		Name:           HotelSuggestionsPromptName,
		Text:           b.String(),
		Schema:         SuggestionSchema,
		SafetySettings: SuggestionSafety,
	}, nil
}

// Suggest makes exactly one model call. Results are neither cached nor retried.
func (s *SuggestionService) Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.SuggestionResponse, error) {
	ctx, span := observability.Tracer().Start(ctx, "SuggestionService.Suggest")
	defer span.End()

	out, err := s.suggest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.ObserveSuggestion(outcomeOf(err))
		return domain.SuggestionResponse{}, err
	}
	span.SetAttributes(attribute.Int("suggestions.count", len(out.Suggestions)))
	if len(out.BelowThreshold()) > 0 {
		observability.ObserveSuggestion("flagged")
	} else {
		observability.ObserveSuggestion("ok")
	}
	return out, nil
}

func (s *SuggestionService) suggest(ctx context.Context, req domain.SuggestionRequest) (domain.SuggestionResponse, error) {
	if s.model == nil {
		return domain.SuggestionResponse{}, domain.ErrModelUnavailable
	}
	req, err := Format(req)
	if err != nil {
		return domain.SuggestionResponse{}, err
	}
	p, err := BuildPrompt(req)
	if err != nil {
		return domain.SuggestionResponse{}, err
	}

	raw, err := s.model.GenerateStructured(ctx, p)
	if err != nil {
		if errors.Is(err, domain.ErrNoStructuredOutput) {
			return domain.SuggestionResponse{}, err
		}
		return domain.SuggestionResponse{}, fmt.Errorf("generate suggestions: %w: %w", domain.ErrUpstream, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.SuggestionResponse{}, domain.ErrNoStructuredOutput
	}

	if err := s.validate(raw); err != nil {
		return domain.SuggestionResponse{}, err
	}
	var out domain.SuggestionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.SuggestionResponse{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	if out.Suggestions == nil {
		out.Suggestions = []domain.HotelSuggestion{}
	}

	flagged := 0
	for i := range out.Suggestions {
		if out.Suggestions[i].SafetyScore < domain.MinSafetyScore {
			out.Suggestions[i].Flagged = true
			flagged++
			log.Warn().
				Str("hotel", out.Suggestions[i].Name).
				Int("safety_score", out.Suggestions[i].SafetyScore).
				Msg("suggestion below safety threshold")
		}
	}
	if flagged > 0 && s.strict {
		return domain.SuggestionResponse{}, fmt.Errorf("%w: %d of %d below %d",
			domain.ErrPolicyViolation, flagged, len(out.Suggestions), domain.MinSafetyScore)
	}
	return out, nil
}

func (s *SuggestionService) validate(raw []byte) error {
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", domain.ErrMalformedOutput, strings.Join(msgs, "; "))
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoStructuredOutput):
		return "no_output"
	case errors.Is(err, domain.ErrMalformedOutput):
		return "malformed"
	case errors.Is(err, domain.ErrPolicyViolation):
		return "rejected"
	case errors.Is(err, domain.ErrInvalidCoordinates):
		return "invalid"
	default:
		return "error"
	}
}
