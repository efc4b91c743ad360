// Package geo classifies leads as inside or outside the target metro area
// using static county, ZIP code, and city reference sets.
package geo

import (
	"sort"
	"strings"

	"github.com/stwalsh4118/roofline/internal/models"
)

// Filter decides whether a lead falls inside the target region.
// Matching precedence is county, then postal code, then city: county data
// is the most semantically reliable signal, postal codes are next, and city
// names collide across regions. The first matching tier short-circuits.
//
// A Filter is immutable after construction and safe for concurrent use.
type Filter struct {
	counties map[string]struct{}
	zipCodes map[string]struct{}
	cities   map[string]struct{}
}

// NewDFWFilter builds a Filter loaded with the Dallas-Fort Worth reference sets.
func NewDFWFilter() *Filter {
	return NewFilter(dfwCounties, dfwZIPCodes, dfwCities)
}

// NewFilter builds a Filter from explicit reference sets. County and city
// entries are normalized the same way lookups are, so callers may pass
// mixed-case values or county names carrying a "County" suffix.
func NewFilter(counties, zipCodes, cities []string) *Filter {
	f := &Filter{
		counties: make(map[string]struct{}, len(counties)),
		zipCodes: make(map[string]struct{}, len(zipCodes)),
		cities:   make(map[string]struct{}, len(cities)),
	}
	for _, c := range counties {
		f.counties[normalizeCounty(c)] = struct{}{}
	}
	for _, z := range zipCodes {
		if z5 := fiveDigitZIP(z); z5 != "" {
			f.zipCodes[z5] = struct{}{}
		}
	}
	for _, c := range cities {
		f.cities[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return f
}

// IsInRegion applies the three-tier precedence to a lead's location fields.
func (f *Filter) IsInRegion(lead *models.Lead) bool {
	if f.MatchCounty(lead.County) {
		return true
	}
	if f.MatchZIP(lead.PostalCode) {
		return true
	}
	return f.MatchCity(lead.City)
}

// Classify sets lead.InRegion from the lead's location fields and
// returns the resulting value.
func (f *Filter) Classify(lead *models.Lead) bool {
	lead.InRegion = f.IsInRegion(lead)
	return lead.InRegion
}

// MatchCounty reports whether the county names a target county.
// "Dallas", "Dallas County", and "DALLAS" all match the same entry.
func (f *Filter) MatchCounty(county string) bool {
	if county == "" {
		return false
	}
	_, ok := f.counties[normalizeCounty(county)]
	return ok
}

// MatchZIP reports whether the first five digits of zip are a target ZIP code.
func (f *Filter) MatchZIP(zip string) bool {
	z5 := fiveDigitZIP(zip)
	if z5 == "" {
		return false
	}
	_, ok := f.zipCodes[z5]
	return ok
}

// MatchCity reports whether city names a target city, case-insensitively.
func (f *Filter) MatchCity(city string) bool {
	if city == "" {
		return false
	}
	_, ok := f.cities[strings.ToLower(strings.TrimSpace(city))]
	return ok
}

// Counties returns the number of target counties loaded.
func (f *Filter) Counties() int { return len(f.counties) }

// ZIPCodes returns the number of target ZIP codes loaded.
func (f *Filter) ZIPCodes() int { return len(f.zipCodes) }

// Cities returns the number of target cities loaded.
func (f *Filter) Cities() int { return len(f.cities) }

// CountyList returns the target counties in sorted order.
func (f *Filter) CountyList() []string { return sortedKeys(f.counties) }

// ZIPCodeList returns the target ZIP codes in sorted order.
func (f *Filter) ZIPCodeList() []string { return sortedKeys(f.zipCodes) }

// CityList returns the target cities in sorted order.
func (f *Filter) CityList() []string { return sortedKeys(f.cities) }

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeCounty lowercases and strips a trailing "County"/"Co." suffix.
func normalizeCounty(county string) string {
	c := strings.ToLower(strings.TrimSpace(county))
	c = strings.TrimSuffix(c, " county")
	c = strings.TrimSuffix(c, " co.")
	return strings.TrimSpace(c)
}

// fiveDigitZIP extracts the leading five digits from a postal code,
// tolerating ZIP+4 formats and stray non-digit characters.
func fiveDigitZIP(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 5 {
				break
			}
		}
	}
	if b.Len() != 5 {
		return ""
	}
	return b.String()
}
