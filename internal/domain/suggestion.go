package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DefaultSafetyConcern replaces an empty concern before the prompt is rendered.
const DefaultSafetyConcern = "General safety and security needed."

// MinSafetyScore is the threshold the prompt asks the model to respect.
const MinSafetyScore = 7

type SuggestionRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	SafetyConcerns string  `json:"safetyConcerns"`
}

// Normalized returns a copy with the default concern substituted.
func (r SuggestionRequest) Normalized() SuggestionRequest {
	if strings.TrimSpace(r.SafetyConcerns) == "" {
		r.SafetyConcerns = DefaultSafetyConcern
	}
	return r
}

type HotelSuggestion struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	ReviewSummary string `json:"googleReviewsSummary"`
	SafetyScore   int    `json:"safetyScore"`
	PriceRange    string `json:"priceRange"`
	// Flagged marks items below MinSafetyScore; the model was asked not to return them.
	Flagged bool `json:"flagged,omitempty"`
}

// UnmarshalJSON accepts integral floats such as 8.0 for safetyScore, which
// JSON Schema treats as integers.
func (h *HotelSuggestion) UnmarshalJSON(b []byte) error {
	type plain HotelSuggestion
	aux := struct {
		*plain
		SafetyScore json.Number `json:"safetyScore"`
	}{plain: (*plain)(h)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.SafetyScore == "" {
		return nil
	}
	f, err := aux.SafetyScore.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("safetyScore %q is not an integer", aux.SafetyScore.String())
	}
	h.SafetyScore = int(f)
	return nil
}

type SuggestionResponse struct {
	Suggestions []HotelSuggestion `json:"suggestions"`
}

// BelowThreshold lists the suggestions scoring under MinSafetyScore, in response order.
func (r SuggestionResponse) BelowThreshold() []HotelSuggestion {
	var out []HotelSuggestion
	for _, s := range r.Suggestions {
		if s.SafetyScore < MinSafetyScore {
			out = append(out, s)
		}
	}
	return out
}

type HarmCategory string

const (
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
)

type BlockThreshold string

const (
	BlockOnlyHigh       BlockThreshold = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove BlockThreshold = "BLOCK_MEDIUM_AND_ABOVE"
)

type SafetySetting struct {
	Category  HarmCategory
	Threshold BlockThreshold
}

// Prompt is a rendered template plus the model configuration it must run with.
type Prompt struct {
	Name           string
	Text           string
	Schema         *Schema
	SafetySettings []SafetySetting
}
