package models

// Section names one category of guide content.
type Section string

const (
	SectionRestaurants   Section = "restaurants"
	SectionAttractions   Section = "attractions"
	SectionEvents        Section = "events"
	SectionNeighborhoods Section = "neighborhoods"
	SectionItinerary     Section = "itinerary"
	SectionWeather       Section = "weather"
	SectionPracticalInfo Section = "practical_info"
)

// RequiredSections is the fixed, canonically ordered set of sections every guide needs.
var RequiredSections = []Section{
	SectionRestaurants,
	SectionAttractions,
	SectionEvents,
	SectionNeighborhoods,
	SectionItinerary,
	SectionWeather,
	SectionPracticalInfo,
}

// Title returns a human-readable section name.
func (s Section) Title() string {
	switch s {
	case SectionRestaurants:
		return "Restaurants"
	case SectionAttractions:
		return "Attractions"
	case SectionEvents:
		return "Events"
	case SectionNeighborhoods:
		return "Neighborhoods"
	case SectionItinerary:
		return "Daily itinerary"
	case SectionWeather:
		return "Weather"
	case SectionPracticalInfo:
		return "Practical info"
	default:
		return string(s)
	}
}

// ResultStatus tags a SectionResult variant.
type ResultStatus string

const (
	StatusSuccess  ResultStatus = "success"
	StatusCacheHit ResultStatus = "cache_hit"
	StatusFailure  ResultStatus = "failure"
)

// SectionResult is the outcome of resolving one section in one generation run.
// Exactly one of Payload (Success, CacheHit) or Err (Failure) is set.
type SectionResult struct {
	Section Section
	Status  ResultStatus
	Payload Payload
	Err     error
}

// Success returns a SectionResult for freshly fetched content.
func Success(p Payload) SectionResult {
	return SectionResult{Section: p.Section(), Status: StatusSuccess, Payload: p}
}

// CacheHit returns a SectionResult for content served from the cache.
func CacheHit(p Payload) SectionResult {
	return SectionResult{Section: p.Section(), Status: StatusCacheHit, Payload: p}
}

// Failure returns a SectionResult for a section whose provider failed.
func Failure(s Section, err error) SectionResult {
	return SectionResult{Section: s, Status: StatusFailure, Err: err}
}

// OK reports whether the result carries real content.
func (r SectionResult) OK() bool {
	return r.Status != StatusFailure && r.Payload != nil
}

// GuideDraft maps each section to its result for one generation run.
type GuideDraft map[Section]SectionResult

// SectionIssue explains why a section is missing or insufficient.
type SectionIssue struct {
	Section Section `json:"section"`
	Reason  string  `json:"reason"`
}

// ValidationResult is the Validator's verdict on a draft.
type ValidationResult struct {
	Passed bool           `json:"passed"`
	Issues []SectionIssue `json:"issues,omitempty"`
}
