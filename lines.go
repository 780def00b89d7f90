package nearby

import (
	"strings"
)

// Line types other than these are the lowercased line name, e.g. "u8"
// or "s41".
const (
	LineTypeBus      = "bus"
	LineTypeTram     = "tram"
	LineTypeRegional = "regional"
)

// A product hint matching any of keywords maps to typ. If prefix is
// set, the type is instead the line name when it starts with prefix,
// and the lowercased prefix otherwise.
type productRule struct {
	keywords []string
	typ      string
	prefix   string
}

// Line names starting with prefix map to typ, or to the lowercased
// line name if typ is blank.
type prefixRule struct {
	prefix string
	typ    string
}

// Checked in order.
var productRules = []productRule{
	{keywords: []string{"tram"}, typ: LineTypeTram},
	{keywords: []string{"bus"}, typ: LineTypeBus},
	{keywords: []string{"subway", "metro"}, prefix: "U"},
	{keywords: []string{"suburban"}, prefix: "S"},
}

var prefixRules = []prefixRule{
	{prefix: "S"},
	{prefix: "U"},
	{prefix: "RE", typ: LineTypeRegional},
	{prefix: "RB", typ: LineTypeRegional},
	{prefix: "IC", typ: LineTypeRegional},
	{prefix: "ICE", typ: LineTypeRegional},
}

// Determines the display category of a line. The productHint (as
// reported by the departures feed, e.g. "suburban") takes precedence
// over the line name. Pass "" if no hint is available.
func ClassifyLine(lineName string, productHint string) string {
	if lineName == "" || lineName == "N/A" {
		return LineTypeBus
	}

	name := strings.ToUpper(strings.ReplaceAll(lineName, " ", ""))

	if productHint != "" {
		product := strings.ToLower(productHint)
		for _, rule := range productRules {
			if !containsAny(product, rule.keywords) {
				continue
			}
			if rule.prefix == "" {
				return rule.typ
			}
			if strings.HasPrefix(name, rule.prefix) {
				return strings.ToLower(name)
			}
			return strings.ToLower(rule.prefix)
		}
	}

	for _, rule := range prefixRules {
		if strings.HasPrefix(name, rule.prefix) {
			if rule.typ == "" {
				return strings.ToLower(name)
			}
			return rule.typ
		}
	}

	return LineTypeBus
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
