package extract

import (
	"encoding/json"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// listingRecord mirrors the normalized listing payload from the proxy API.
// Listing feeds disagree on key names for market price and time on market,
// so the record carries the known aliases.
type listingRecord struct {
	ListingID     string    `json:"listing_id"`
	ZPID          string    `json:"zpid"`
	Address       string    `json:"address"`
	StreetAddress string    `json:"street_address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zip_code"`
	County        string    `json:"county"`
	Price         flexFloat `json:"price"`
	YearBuilt     *int      `json:"year_built"`
	PropertyType  string    `json:"property_type"`
	SquareFeet    flexFloat `json:"square_feet"`
	DaysOnMarket  *int      `json:"days_on_market"`
	DaysOnZillow  *int      `json:"days_on_zillow"`
}

// ListingExtractor normalizes real-estate listing records.
type ListingExtractor struct{}

func (e *ListingExtractor) SourceType() models.SourceType {
	return models.SourceListing
}

// Extract decodes listing records, skipping any without an address or price.
func (e *ListingExtractor) Extract(body []byte, sourceURL string) ([]models.Lead, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	leads := make([]models.Lead, 0, len(records))
	for _, raw := range records {
		var rec listingRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		address := rec.Address
		if address == "" {
			address = rec.StreetAddress
		}
		if address == "" || rec.Price.value == nil {
			continue
		}

		listingID := rec.ListingID
		if listingID == "" {
			listingID = rec.ZPID
		}

		lead := models.Lead{
			SourceType:   models.SourceListing,
			Address:      address,
			City:         rec.City,
			State:        rec.State,
			PostalCode:   rec.ZipCode,
			County:       rec.County,
			Value:        rec.Price.value,
			BuiltYear:    rec.YearBuilt,
			PropertyType: strPtrIfSet(rec.PropertyType),
			SquareFeet:   intPtr(rec.SquareFeet.value),
			DaysOnMarket: firstInt(rec.DaysOnMarket, rec.DaysOnZillow),
		}
		if listingID != "" {
			lead.ListingID = &listingID
		}
		lead.Finalize(sourceURL, now)
		leads = append(leads, lead)
	}

	return leads, nil
}

// strPtrIfSet returns a pointer to s, or nil when s is empty.
func strPtrIfSet(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstInt returns the first non-nil value.
func firstInt(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
