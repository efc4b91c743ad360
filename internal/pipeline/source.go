package pipeline

import (
	"fmt"
	"time"

	"github.com/stwalsh4118/roofline/internal/extract"
	"github.com/stwalsh4118/roofline/internal/geo"
	"github.com/stwalsh4118/roofline/internal/models"
)

// Source is one upstream feed: a named set of target URLs and the extractor
// that understands its payloads.
type Source struct {
	Name      string
	Type      models.SourceType
	URLs      []string
	Extractor extract.Extractor
}

// Caps on generated URL counts per source, mirroring how many searches a
// single run can afford against the proxy's hourly quota.
const (
	maxListingZIPs  = 50
	maxPermitCities = 25
)

// cadPortals maps each appraisal district to its property search endpoint.
var cadPortals = map[string]string{
	"dallas":   "https://www.dallascad.org/PropertySearch/search.aspx",
	"tarrant":  "https://www.tad.org/PropSearch/search.aspx",
	"collin":   "https://www.collincad.org/Property-Search",
	"denton":   "https://www.dentoncad.com/property-search",
	"rockwall": "https://www.rockwallcad.com/property-search",
	"ellis":    "https://www.elliscad.com/property-search",
	"johnson":  "https://www.johnsoncad.com/property-search",
	"kaufman":  "https://www.kaufmancad.org/property-search",
	"parker":   "https://www.parkercad.org/property-search",
}

// permitTypes are the work categories worth polling in municipal permit
// systems for roof-related activity.
var permitTypes = []string{"roofing", "residential", "repair"}

// stormEndpoints are the weather feeds polled for severe-weather events
// over the target region.
var stormEndpoints = []string{
	"https://api.weather.gov/alerts?area=TX",
	"https://www.ncdc.noaa.gov/stormevents/json?state=TX&eventType=Hail",
	"https://api.hailtrace.com/v1/hail-reports?region=dfw",
}

// DefaultSources builds the standard four sources, generating target URLs
// from the region filter's reference sets.
func DefaultSources(filter *geo.Filter, now time.Time) []Source {
	return []Source{
		ListingSource(filter),
		AssessorSource(filter),
		PermitSource(filter, now),
		StormSource(),
	}
}

// ListingSource targets sold and for-sale listing searches on both major
// listing portals, three URLs per target ZIP code.
func ListingSource(filter *geo.Filter) Source {
	zips := filter.ZIPCodeList()
	if len(zips) > maxListingZIPs {
		zips = zips[:maxListingZIPs]
	}

	urls := make([]string, 0, len(zips)*3)
	for _, zip := range zips {
		urls = append(urls,
			fmt.Sprintf("https://www.zillow.com/homes/%s_rb/sold_type/0-_price/globalrelevanceex_sort/1_p/", zip),
			fmt.Sprintf("https://www.zillow.com/homes/%s_rb/for_sale_type/0-_price/globalrelevanceex_sort/1_p/", zip),
			fmt.Sprintf("https://www.redfin.com/zipcode/%s/filter/property-type=house", zip),
		)
	}

	return Source{
		Name:      "listings",
		Type:      models.SourceListing,
		URLs:      urls,
		Extractor: &extract.ListingExtractor{},
	}
}

// AssessorSource targets each county appraisal district's residential
// property search.
func AssessorSource(filter *geo.Filter) Source {
	urls := make([]string, 0, len(cadPortals))
	for _, county := range filter.CountyList() {
		portal, ok := cadPortals[county]
		if !ok {
			continue
		}
		urls = append(urls, portal+"?propertyType=residential")
	}

	return Source{
		Name:      "assessor",
		Type:      models.SourceAssessor,
		URLs:      urls,
		Extractor: &extract.AssessorExtractor{},
	}
}

// PermitSource targets municipal permit searches for roof-related work
// issued in the last 30 days, one URL per city and permit type.
func PermitSource(filter *geo.Filter, now time.Time) Source {
	cities := filter.CityList()
	if len(cities) > maxPermitCities {
		cities = cities[:maxPermitCities]
	}
	since := now.AddDate(0, 0, -30).Format("2006-01-02")

	urls := make([]string, 0, len(cities)*len(permitTypes))
	for _, city := range cities {
		for _, pt := range permitTypes {
			urls = append(urls, fmt.Sprintf(
				"https://permits.%s.tx.us/PermitSearch/Results?type=%s&dateFrom=%s",
				citySlug(city), pt, since,
			))
		}
	}

	return Source{
		Name:      "permits",
		Type:      models.SourcePermit,
		URLs:      urls,
		Extractor: &extract.PermitExtractor{},
	}
}

// StormSource targets the statewide severe-weather feeds.
func StormSource() Source {
	return Source{
		Name:      "storms",
		Type:      models.SourceStorm,
		URLs:      append([]string(nil), stormEndpoints...),
		Extractor: &extract.StormExtractor{},
	}
}

// citySlug turns a city name into its URL form ("fort worth" -> "fortworth").
func citySlug(city string) string {
	slug := make([]byte, 0, len(city))
	for i := 0; i < len(city); i++ {
		c := city[i]
		if c == ' ' || c == '.' || c == '\'' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		slug = append(slug, c)
	}
	return string(slug)
}
