package extract

import (
	"encoding/json"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// permitRecord mirrors municipal permit-search rows.
type permitRecord struct {
	PermitID        string    `json:"permit_id"`
	PermitNumber    string    `json:"permit_number"`
	PermitType      string    `json:"permit_type"`
	WorkDescription string    `json:"work_description"`
	PermitDate      flexDate  `json:"permit_date"`
	IssueDate       flexDate  `json:"issue_date"`
	Address         string    `json:"address"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	ZipCode         string    `json:"zip_code"`
	County          string    `json:"county"`
	Valuation       flexFloat `json:"valuation"`
}

// PermitExtractor normalizes roofing and residential permit records.
type PermitExtractor struct{}

func (e *PermitExtractor) SourceType() models.SourceType {
	return models.SourcePermit
}

// Extract decodes permit records, skipping any without an address.
func (e *PermitExtractor) Extract(body []byte, sourceURL string) ([]models.Lead, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leads := make([]models.Lead, 0, len(records))
	for _, raw := range records {
		var rec permitRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Address == "" {
			continue
		}

		permitID := rec.PermitID
		if permitID == "" {
			permitID = rec.PermitNumber
		}

		permitDate := rec.PermitDate.value
		if permitDate == nil {
			permitDate = rec.IssueDate.value
		}

		lead := models.Lead{
			SourceType:      models.SourcePermit,
			Address:         rec.Address,
			City:            rec.City,
			State:           rec.State,
			PostalCode:      rec.ZipCode,
			County:          rec.County,
			Value:           rec.Valuation.value,
			PermitID:        strPtrIfSet(permitID),
			PermitType:      strPtrIfSet(rec.PermitType),
			WorkDescription: strPtrIfSet(rec.WorkDescription),
			PermitDate:      permitDate,
		}
		lead.Finalize(sourceURL, now)
		leads = append(leads, lead)
	}

	return leads, nil
}
