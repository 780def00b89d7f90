package nearby

import (
	"strings"

	"tidbyt.dev/nearby/model"
)

const FallbackArea = "Other Destinations"

// Rules are checked in order, so a direction matching both a central
// and an outlying keyword ends up in the central area.
//
// Matching is by substring, and will misfire on place names embedded
// in other place names. That's accepted.
var DefaultAreaRules = []model.AreaRule{
	{
		Area:     "Berlin Mitte",
		Keywords: []string{"mitte", "alexanderplatz", "potsdamer platz", "friedrichstr"},
	},
	{
		Area:     "West Berlin",
		Keywords: []string{"charlottenburg", "wilmersdorf", "schöneberg", "steglitz", "zehlendorf", "spandau"},
	},
	{
		Area:     "East Berlin",
		Keywords: []string{"friedrichshain", "kreuzberg", "prenzlauer berg", "lichtenberg", "marzahn", "hellersdorf"},
	},
	{
		Area:     "North Berlin",
		Keywords: []string{"wedding", "reinickendorf", "pankow", "weißensee"},
	},
	{
		Area:     "South Berlin",
		Keywords: []string{"tempelhof", "neukölln", "treptow", "köpenick"},
	},
	{
		Area:     "Brandenburg",
		Keywords: []string{"potsdam", "oranienburg", "strausberg", "königs wusterhausen", "flughafen"},
	},
}

// Buckets free text directions into coarse geographic areas.
type AreaClassifier struct {
	Rules    []model.AreaRule
	Fallback string
}

// Creates a classifier from an ordered rule list. Keywords are
// lowercased. A nil or empty list yields DefaultAreaRules.
func NewAreaClassifier(rules []model.AreaRule) *AreaClassifier {
	if len(rules) == 0 {
		rules = DefaultAreaRules
	}

	normalized := make([]model.AreaRule, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		normalized = append(normalized, model.AreaRule{Area: rule.Area, Keywords: keywords})
	}

	return &AreaClassifier{
		Rules:    normalized,
		Fallback: FallbackArea,
	}
}

func (c *AreaClassifier) Classify(direction string) string {
	direction = strings.ToLower(direction)
	for _, rule := range c.Rules {
		if containsAny(direction, rule.Keywords) {
			return rule.Area
		}
	}
	return c.Fallback
}
