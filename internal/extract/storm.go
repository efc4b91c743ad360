package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// stormRecord mirrors weather-service storm event rows. Hail size and wind
// speed arrive as strings with units ("2.5 inches", "70 mph") from some
// feeds and as plain numbers from others.
type stormRecord struct {
	EventID           string    `json:"event_id"`
	EventType         string    `json:"event_type"`
	EventDate         flexDate  `json:"event_date"`
	Date              flexDate  `json:"date"`
	HailSize          flexFloat `json:"hail_size"`
	WindSpeed         flexFloat `json:"wind_speed"`
	AffectedCounties  string    `json:"affected_counties"`
	AffectedZipcodes  string    `json:"affected_zipcodes"`
	City              string    `json:"city"`
	County            string    `json:"county"`
	Address           string    `json:"address"`
	DamageEstimate    string    `json:"damage_estimate"`
	InsuranceExpected *int      `json:"insurance_claims_expected"`
}

// StormExtractor normalizes storm events, one lead per event. The first
// affected county and ZIP code anchor the event for geo classification.
type StormExtractor struct{}

func (e *StormExtractor) SourceType() models.SourceType {
	return models.SourceStorm
}

// Extract decodes storm event records, skipping any without an event ID.
func (e *StormExtractor) Extract(body []byte, sourceURL string) ([]models.Lead, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leads := make([]models.Lead, 0, len(records))
	for _, raw := range records {
		var rec stormRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.EventID == "" {
			continue
		}

		eventDate := rec.EventDate.value
		if eventDate == nil {
			eventDate = rec.Date.value
		}

		lead := models.Lead{
			SourceType:    models.SourceStorm,
			Address:       rec.Address,
			City:          rec.City,
			State:         "TX",
			County:        rec.County,
			EventID:       strPtrIfSet(rec.EventID),
			EventType:     strPtrIfSet(rec.EventType),
			EventDate:     eventDate,
			HailSizeIn:    rec.HailSize.value,
			WindSpeedMPH:  intPtr(rec.WindSpeed.value),
			StormAffected: true,
		}

		if zips := splitList(rec.AffectedZipcodes); len(zips) > 0 {
			lead.PostalCode = zips[0]
		}
		if counties := splitList(rec.AffectedCounties); len(counties) > 0 && lead.County == "" {
			lead.County = counties[0]
		}
		if lead.Address == "" {
			lead.Address = rec.EventID
		}

		lead.Finalize(sourceURL, now)
		leads = append(leads, lead)
	}

	return leads, nil
}

// splitList splits a comma-separated field, dropping empty entries.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
