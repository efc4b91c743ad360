package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// Extractor turns a raw response body from one source into normalized leads.
// Implementations must never panic on malformed input; records that cannot
// be normalized are skipped.
type Extractor interface {
	SourceType() models.SourceType
	Extract(body []byte, sourceURL string) ([]models.Lead, error)
}

// ForSource returns the extractor for the given source type.
func ForSource(st models.SourceType) (Extractor, error) {
	switch st {
	case models.SourceListing:
		return &ListingExtractor{}, nil
	case models.SourceAssessor:
		return &AssessorExtractor{}, nil
	case models.SourcePermit:
		return &PermitExtractor{}, nil
	case models.SourceStorm:
		return &StormExtractor{}, nil
	default:
		return nil, fmt.Errorf("no extractor for source type %q", st)
	}
}

// decodeRecords handles the two payload shapes upstream responses use: a
// bare JSON array, or an object wrapping the array under "results".
func decodeRecords(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode record array: %w", err)
		}
		return records, nil
	}

	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	return envelope.Results, nil
}

// flexFloat decodes numbers that arrive as JSON numbers or as strings with
// trailing units, like "2.5 inches" or "$450,000".
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, ok := leadingFloat(s); ok {
			f.value = &v
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	f.value = &v
	return nil
}

// leadingFloat parses the leading numeric portion of a string, ignoring
// currency symbols, thousands separators, and trailing units.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && c == '-') {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// flexDate decodes dates that arrive as RFC 3339 timestamps or as bare
// YYYY-MM-DD strings.
type flexDate struct {
	value *time.Time
}

func (d *flexDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(bytes.TrimSpace(data), &s); err != nil {
		return nil
	}
	if s == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			d.value = &t
			return nil
		}
	}
	return nil
}

// intPtr converts an optional float to an optional int, dropping fractions.
func intPtr(f *float64) *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}
