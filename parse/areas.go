package parse

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"tidbyt.dev/nearby/model"
)

type AreaRuleCSV struct {
	Area    string `csv:"area"`
	Keyword string `csv:"keyword"`
}

// Parses an area rule table. Each row maps a keyword to an area:
//
//	area,keyword
//	Berlin Mitte,alexanderplatz
//	Brandenburg,potsdam
//
// Rules are ordered by the first appearance of each area, which
// determines their priority.
func ParseAreaRules(data io.Reader) ([]model.AreaRule, error) {
	ruleCsv := []*AreaRuleCSV{}
	err := gocsv.UnmarshalCSV(gocsv.LazyCSVReader(bom.NewReader(data)), &ruleCsv)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling area rules csv: %w", err)
	}

	rules := []model.AreaRule{}
	index := map[string]int{}
	for i, r := range ruleCsv {
		area := strings.TrimSpace(r.Area)
		keyword := strings.ToLower(strings.TrimSpace(r.Keyword))
		if area == "" {
			return nil, fmt.Errorf("empty area (row %d)", i+1)
		}
		if keyword == "" {
			return nil, fmt.Errorf("empty keyword for area '%s' (row %d)", area, i+1)
		}

		idx, found := index[area]
		if !found {
			idx = len(rules)
			index[area] = idx
			rules = append(rules, model.AreaRule{Area: area})
		}
		rules[idx].Keywords = append(rules[idx].Keywords, keyword)
	}

	if len(rules) == 0 {
		return nil, fmt.Errorf("no area rules")
	}

	return rules, nil
}

func LoadAreaRules(path string) ([]model.AreaRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ParseAreaRules(f)
}
