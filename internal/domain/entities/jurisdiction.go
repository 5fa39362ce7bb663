package entities

import "strings"

// countryTags maps human-readable region names to jurisdiction tags.
// Lookups are case-insensitive.
var countryTags = map[string]string{
	"malaysia":  "MY",
	"singapore": "SG",
}

// ResolveJurisdiction maps a region name to its jurisdiction tag.
// An unrecognized name returns ok=false, which disables filtering.
func ResolveJurisdiction(name string) (tag string, ok bool) {
	tag, ok = countryTags[strings.ToLower(strings.TrimSpace(name))]
	return tag, ok
}

// JurisdictionFilter picks the region to filter retrieval by: the
// destination country wins over the generic country field when both are set.
func (r *QueryRequest) JurisdictionFilter() string {
	if r.ToCountry != "" {
		return r.ToCountry
	}
	return r.Country
}
