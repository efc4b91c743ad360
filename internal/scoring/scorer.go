// Package scoring computes the 1-10 lead quality score from weighted signals:
// property value, roof age, location, source reliability, storm exposure, and
// recency of activity.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/stwalsh4118/roofline/internal/models"
)

// Score bounds. Every computed score is clamped into this range.
const (
	MinScore = 1
	MaxScore = 10
)

// ValueTier maps a minimum property value to a score bonus.
type ValueTier struct {
	Threshold float64
	Bonus     float64
}

// Weights parameterizes the scoring formula. Weight constants vary per source
// in configuration, not in code: every source runs the same algorithm.
type Weights struct {
	// Base is the prior before any signal is applied.
	Base float64

	// ValueTiers must be sorted by descending threshold; the first tier the
	// value meets wins.
	ValueTiers []ValueTier

	// Age bonuses. The sweet spot reflects the domain heuristic that roofs
	// 10-30 years old are the likeliest replacement candidates.
	AgeSweetSpotBonus float64 // age within [AgeSweetSpotMin, AgeSweetSpotMax]
	AgeNearBonus      float64 // age within [AgeNearMin, AgeNearMax] but outside the sweet spot
	AgeOldBonus       float64 // age beyond AgeNearMax

	// Location bonuses, applied highest-first (premium city beats good city
	// beats premium ZIP).
	PremiumCityBonus float64
	GoodCityBonus    float64
	PremiumZIPBonus  float64

	// SourceOffsets is the fixed per-source reliability offset.
	SourceOffsets map[models.SourceType]float64

	// Storm exposure.
	StormBonus       float64 // any storm-affected record
	LargeHailBonus   float64 // hail at or above LargeHailInches
	RecentStormBonus float64 // event within RecentStormDays

	// Recency of observed activity (listing date on market, permit filing).
	RecentActivityBonus float64 // within RecentActivityDays
	NearActivityBonus   float64 // within NearActivityDays
}

// Age band boundaries (years).
const (
	AgeSweetSpotMin = 10
	AgeSweetSpotMax = 30
	AgeNearMin      = 5
	AgeNearMax      = 40
)

// Storm and recency boundaries.
const (
	LargeHailInches    = 2.0
	RecentStormDays    = 30
	MaxStormBonus      = 2.0
	RecentActivityDays = 30
	NearActivityDays   = 90
)

// DefaultWeights returns the calibrated production weights. The source
// offsets order official, structured sources above listing scrapes:
// permits over storm-confirmed leads over assessor records over listings.
func DefaultWeights() Weights {
	return Weights{
		Base: 5.0,
		ValueTiers: []ValueTier{
			{Threshold: 800_000, Bonus: 2.0},
			{Threshold: 500_000, Bonus: 1.5},
			{Threshold: 300_000, Bonus: 1.0},
			{Threshold: 200_000, Bonus: 0.5},
		},
		AgeSweetSpotBonus: 1.5,
		AgeNearBonus:      1.0,
		AgeOldBonus:       0.5,
		PremiumCityBonus:  1.5,
		GoodCityBonus:     1.0,
		PremiumZIPBonus:   0.5,
		SourceOffsets: map[models.SourceType]float64{
			models.SourcePermit:   1.5,
			models.SourceStorm:    1.0,
			models.SourceAssessor: 0.5,
			models.SourceListing:  0.0,
		},
		StormBonus:          1.0,
		LargeHailBonus:      0.5,
		RecentStormBonus:    0.5,
		RecentActivityBonus: 2.0,
		NearActivityBonus:   1.0,
	}
}

// Premium and good locations for the location tier. Premium entries carry the
// full location bonus; good entries a reduced one.
var (
	premiumCities = map[string]struct{}{
		"plano": {}, "frisco": {}, "allen": {}, "southlake": {},
		"westlake": {}, "highland park": {}, "university park": {},
		"colleyville": {},
	}
	goodCities = map[string]struct{}{
		"dallas": {}, "fort worth": {}, "arlington": {}, "irving": {},
		"garland": {}, "mesquite": {}, "mckinney": {}, "richardson": {},
	}
	premiumZIPs = map[string]struct{}{
		"75024": {}, "75034": {}, "75035": {}, "75209": {},
		"75225": {}, "76092": {},
	}
)

// Scorer computes lead scores. It holds per-source weights plus a clock so
// age and recency math is reproducible in tests. Scoring is a pure function
// of the lead and the clock: identical inputs always yield the same score.
type Scorer struct {
	weights  map[models.SourceType]Weights
	fallback Weights
	now      func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the scorer's notion of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithSourceWeights overrides the weights for one source type.
func WithSourceWeights(source models.SourceType, w Weights) Option {
	return func(s *Scorer) { s.weights[source] = w }
}

// NewScorer builds a Scorer with DefaultWeights for every source.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		weights:  make(map[models.SourceType]Weights, 4),
		fallback: DefaultWeights(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the lead quality score for a lead. The result is always
// within [MinScore, MaxScore] and deterministic for identical inputs.
func (s *Scorer) Score(lead *models.Lead) int {
	w, ok := s.weights[lead.SourceType]
	if !ok {
		w = s.fallback
	}
	now := s.now()

	score := w.Base
	score += valueBonus(w, lead.Value)
	score += ageBonus(w, lead.BuiltYear, now)
	score += locationBonus(w, lead.City, lead.PostalCode)
	score += w.SourceOffsets[lead.SourceType]
	score += stormBonus(w, lead, now)
	score += recencyBonus(w, lead, now)

	rounded := int(math.Round(score))
	if rounded < MinScore {
		return MinScore
	}
	if rounded > MaxScore {
		return MaxScore
	}
	return rounded
}

// Apply scores the lead and stamps the result onto it.
func (s *Scorer) Apply(lead *models.Lead) {
	lead.LeadScore = s.Score(lead)
}

func valueBonus(w Weights, value *float64) float64 {
	if value == nil || *value <= 0 {
		return 0
	}
	for _, tier := range w.ValueTiers {
		if *value > tier.Threshold {
			return tier.Bonus
		}
	}
	return 0
}

func ageBonus(w Weights, builtYear *int, now time.Time) float64 {
	if builtYear == nil || *builtYear <= 0 {
		return 0
	}
	age := now.Year() - *builtYear
	switch {
	case age >= AgeSweetSpotMin && age <= AgeSweetSpotMax:
		return w.AgeSweetSpotBonus
	case age >= AgeNearMin && age <= AgeNearMax:
		return w.AgeNearBonus
	case age > AgeNearMax:
		return w.AgeOldBonus
	default:
		return 0
	}
}

func locationBonus(w Weights, city, zip string) float64 {
	c := strings.ToLower(strings.TrimSpace(city))
	if _, ok := premiumCities[c]; ok {
		return w.PremiumCityBonus
	}
	if _, ok := goodCities[c]; ok {
		return w.GoodCityBonus
	}
	if _, ok := premiumZIPs[zip]; ok {
		return w.PremiumZIPBonus
	}
	return 0
}

func stormBonus(w Weights, lead *models.Lead, now time.Time) float64 {
	if !lead.StormAffected {
		return 0
	}
	bonus := w.StormBonus
	if lead.HailSizeIn != nil && *lead.HailSizeIn >= LargeHailInches {
		bonus += w.LargeHailBonus
	}
	if lead.EventDate != nil && now.Sub(*lead.EventDate) <= RecentStormDays*24*time.Hour {
		bonus += w.RecentStormBonus
	}
	if bonus > MaxStormBonus {
		bonus = MaxStormBonus
	}
	return bonus
}

func recencyBonus(w Weights, lead *models.Lead, now time.Time) float64 {
	var observed *time.Time
	switch lead.SourceType {
	case models.SourcePermit:
		observed = lead.PermitDate
	case models.SourceListing:
		if lead.DaysOnMarket != nil {
			t := now.AddDate(0, 0, -*lead.DaysOnMarket)
			observed = &t
		}
	}
	if observed == nil {
		return 0
	}
	days := now.Sub(*observed).Hours() / 24
	switch {
	case days < 0:
		return 0
	case days <= RecentActivityDays:
		return w.RecentActivityBonus
	case days <= NearActivityDays:
		return w.NearActivityBonus
	default:
		return 0
	}
}
