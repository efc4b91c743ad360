package extract

import (
	"encoding/json"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// assessorRecord mirrors county appraisal-district rows. Districts name the
// valuation column differently, so market and appraised values are both read.
type assessorRecord struct {
	AccountNumber    string    `json:"account_number"`
	CADAccountNumber string    `json:"cad_account_number"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	ZipCode          string    `json:"zip_code"`
	County           string    `json:"county"`
	MarketValue      flexFloat `json:"market_value"`
	AppraisedValue   flexFloat `json:"appraised_value"`
	YearBuilt        *int      `json:"year_built"`
	SquareFeet       flexFloat `json:"square_feet"`
	PropertyType     string    `json:"property_type"`
}

// AssessorExtractor normalizes county appraisal records.
type AssessorExtractor struct{}

func (e *AssessorExtractor) SourceType() models.SourceType {
	return models.SourceAssessor
}

// Extract decodes assessor records, skipping any without an address.
func (e *AssessorExtractor) Extract(body []byte, sourceURL string) ([]models.Lead, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leads := make([]models.Lead, 0, len(records))
	for _, raw := range records {
		var rec assessorRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Address == "" {
			continue
		}

		account := rec.AccountNumber
		if account == "" {
			account = rec.CADAccountNumber
		}

		value := rec.MarketValue.value
		if value == nil {
			value = rec.AppraisedValue.value
		}

		lead := models.Lead{
			SourceType:    models.SourceAssessor,
			Address:       rec.Address,
			City:          rec.City,
			State:         rec.State,
			PostalCode:    rec.ZipCode,
			County:        rec.County,
			Value:         value,
			BuiltYear:     rec.YearBuilt,
			SquareFeet:    intPtr(rec.SquareFeet.value),
			PropertyType:  strPtrIfSet(rec.PropertyType),
			AccountNumber: strPtrIfSet(account),
		}
		lead.Finalize(sourceURL, now)
		leads = append(leads, lead)
	}

	return leads, nil
}
