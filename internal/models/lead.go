package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SourceType identifies which kind of upstream source produced a Lead.
// It drives extractor selection, identity hashing, and the source-reliability
// component of the lead score.
type SourceType string

const (
	SourceListing  SourceType = "listing"
	SourceAssessor SourceType = "assessor"
	SourcePermit   SourceType = "permit"
	SourceStorm    SourceType = "storm"
)

// SourceTypes returns all known source types in reliability order,
// most reliable first.
func SourceTypes() []SourceType {
	return []SourceType{SourcePermit, SourceStorm, SourceAssessor, SourceListing}
}

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceListing, SourceAssessor, SourcePermit, SourceStorm:
		return true
	}
	return false
}

// Table returns the datastore table name for leads of this source type.
func (s SourceType) Table() string {
	switch s {
	case SourceListing:
		return "listing_leads"
	case SourceAssessor:
		return "assessor_leads"
	case SourcePermit:
		return "permit_leads"
	case SourceStorm:
		return "storm_leads"
	default:
		return "leads"
	}
}

// Lead is the normalized view of a scraped record, regardless of source.
// Extractors populate everything except LeadScore and InRegion, which are
// set by the scorer and geo filter respectively.
// All nullable fields use pointers to distinguish between zero values and absent data.
type Lead struct {
	// Identity and provenance
	IdentityHash string     `json:"identity_hash"`
	SourceType   SourceType `json:"source_type"`
	SourceURL    string     `json:"source_url"`
	FetchedAt    time.Time  `json:"fetched_at"`

	// Location
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	County     string `json:"county"`

	// Valuation and age
	Value     *float64 `json:"value,omitempty"`
	BuiltYear *int     `json:"built_year,omitempty"`

	// Listing-specific
	ListingID    *string `json:"listing_id,omitempty"`
	PropertyType *string `json:"property_type,omitempty"`
	SquareFeet   *int    `json:"square_feet,omitempty"`
	DaysOnMarket *int    `json:"days_on_market,omitempty"`

	// Assessor-specific
	AccountNumber *string `json:"account_number,omitempty"`

	// Permit-specific
	PermitID        *string    `json:"permit_id,omitempty"`
	PermitType      *string    `json:"permit_type,omitempty"`
	WorkDescription *string    `json:"work_description,omitempty"`
	PermitDate      *time.Time `json:"permit_date,omitempty"`

	// Storm-specific
	EventID       *string    `json:"event_id,omitempty"`
	EventType     *string    `json:"event_type,omitempty"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	HailSizeIn    *float64   `json:"hail_size_in,omitempty"`
	WindSpeedMPH  *int       `json:"wind_speed_mph,omitempty"`
	StormAffected bool       `json:"storm_affected"`

	// Computed, never supplied by extractors
	LeadScore int  `json:"lead_score"`
	InRegion  bool `json:"in_region"`
}

// ComputeIdentityHash derives the stable deduplication fingerprint from the
// Lead's natural-key fields. The chosen fields mirror what each source can
// actually guarantee is stable across re-fetches: a duplicate scrape of the
// same logical entity must always hash to the same value.
func (l *Lead) ComputeIdentityHash() string {
	var fields []string

	switch l.SourceType {
	case SourceListing:
		fields = []string{strVal(l.ListingID), l.Address, floatKey(l.Value)}
	case SourceAssessor:
		fields = []string{strVal(l.AccountNumber), l.Address, floatKey(l.Value)}
	case SourcePermit:
		fields = []string{strVal(l.PermitID), l.Address, timeKey(l.PermitDate)}
	case SourceStorm:
		fields = []string{strVal(l.EventID), timeKey(l.EventDate), strVal(l.EventType)}
	default:
		fields = []string{l.Address, l.City, l.PostalCode}
	}

	sum := sha256.Sum256([]byte(string(l.SourceType) + "|" + strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// Finalize stamps the identity hash and fetch metadata onto the lead.
// Extractors call this once all natural-key fields are populated.
func (l *Lead) Finalize(sourceURL string, fetchedAt time.Time) {
	l.SourceURL = sourceURL
	l.FetchedAt = fetchedAt
	l.IdentityHash = l.ComputeIdentityHash()
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func floatKey(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *p)
}

func timeKey(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format("2006-01-02")
}

// Ptr returns a pointer to v. Convenience for building Leads with optional fields.
func Ptr[T any](v T) *T {
	return &v
}
