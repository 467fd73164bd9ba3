// Package transform holds the pure normalization rules applied to RePORTER
// award fields: organization and city canonicalization, currency display and
// notice-date reformatting.
package transform

import (
	"strings"
)

// Rule is one ordered substring rule. Match is compared against the
// uppercased input; Replace is either the whole result (special cases, city
// rules) or the substitution for every occurrence of Match (organization rules).
type Rule struct {
	Match   string `yaml:"match" mapstructure:"match"`
	Replace string `yaml:"replace" mapstructure:"replace"`
}

// Rules groups the three ordered rule tables used by NameNormalizer.
type Rules struct {
	SpecialCases []Rule `yaml:"special_cases" mapstructure:"special_cases"`
	Organization []Rule `yaml:"organization" mapstructure:"organization"`
	City         []Rule `yaml:"city" mapstructure:"city"`
}

// DefaultRules returns the BRIMR medical-school tables.
// Longer organization keys come before the keys they contain.
func DefaultRules() Rules {
	return Rules{
		SpecialCases: []Rule{
			{Match: "MAYO CLINIC ROCHESTER", Replace: "MAYO CLINIC SCHOOL OF MEDICINE"},
			{Match: "CASE WESTERN RESERVE UNIVERSITY", Replace: "CASE WESTERN RESERVE UNIVERSITY SCHOOL OF MEDICINE"},
			{Match: "CLEVELAND CLINIC LERNER", Replace: "CASE WESTERN RESERVE UNIVERSITY SCHOOL OF MEDICINE"},
			{Match: "HENRY FORD HEALTH SYSTEM", Replace: "HENRY FORD HEALTH SYSTEM/MICHIGAN STATE UNIVERSITY"},
			{Match: "MICHIGAN STATE UNIVERSITY", Replace: "HENRY FORD HEALTH SYSTEM/MICHIGAN STATE UNIVERSITY"},
		},
		Organization: []Rule{
			{Match: "SCHOOL OF MEDICINE & DENTISTRY", Replace: "SCHOOLS OF MEDICINE"},
			{Match: "OVERALL MEDICAL", Replace: "SCHOOLS OF MEDICINE"},
			{Match: "HEALTH SCIENCE CENTER", Replace: ""},
			{Match: "COLLEGE OF MEDICINE", Replace: ""},
			{Match: "MEDICAL CENTER", Replace: ""},
			{Match: "HEALTH CENTER", Replace: ""},
			{Match: "SCHOOL OF MEDICINE", Replace: ""},
		},
		City: []Rule{
			{Match: "NEW YORK CITY", Replace: "NEW YORK"},
			{Match: "SAN FRANCISCO", Replace: "SAN FRANCISCO"},
			{Match: "LOS ANGELES", Replace: "LOS ANGELES"},
		},
	}
}

// NameNormalizer canonicalizes organization and city names.
// The zero value applies no rules beyond uppercasing and whitespace cleanup.
type NameNormalizer struct {
	rules     Rules
	canonical map[string]string
}

// NewNameNormalizer builds a normalizer over the given rule tables.
// Match keys are uppercased and rules with an empty Match are dropped.
func NewNameNormalizer(r Rules) *NameNormalizer {
	n := &NameNormalizer{
		rules: Rules{
			SpecialCases: cleanRules(r.SpecialCases),
			Organization: cleanRules(r.Organization),
			City:         cleanRules(r.City),
		},
		canonical: make(map[string]string),
	}
	for _, sc := range n.rules.SpecialCases {
		n.canonical[collapse(strings.ToUpper(sc.Replace))] = sc.Replace
	}
	return n
}

// Rules returns a copy of the tables in use.
func (n *NameNormalizer) Rules() Rules {
	return Rules{
		SpecialCases: append([]Rule(nil), n.rules.SpecialCases...),
		Organization: append([]Rule(nil), n.rules.Organization...),
		City:         append([]Rule(nil), n.rules.City...),
	}
}

// NormalizeOrganization maps a raw organization name to its canonical form.
// Special cases are checked first and win outright; otherwise the
// organization rules are applied in order to the running string.
func (n *NameNormalizer) NormalizeOrganization(name string) string {
	upper := collapse(strings.ToUpper(name))
	if upper == "" {
		return ""
	}

	if v, ok := n.special(upper); ok {
		return v
	}
	if v, ok := n.canonical[upper]; ok {
		return v
	}

	// Repeat until stable so the output is a fixed point. Each pass can only
	// shrink or rewrite matched keys, so a handful of passes is enough.
	out := upper
	for range len(n.rules.Organization) + 1 {
		next := out
		for _, r := range n.rules.Organization {
			next = strings.ReplaceAll(next, r.Match, r.Replace)
		}
		next = collapse(next)
		if next == out {
			break
		}
		out = next
	}

	// Stripping can expose a special-case key that was split in the input.
	if out != upper {
		if v, ok := n.special(out); ok {
			return v
		}
	}
	return out
}

// NormalizeCity uppercases a city and maps it through the city table.
func (n *NameNormalizer) NormalizeCity(city string) string {
	upper := strings.ToUpper(city)
	for _, r := range n.rules.City {
		if strings.Contains(upper, r.Match) {
			return r.Replace
		}
	}
	return upper
}

func (n *NameNormalizer) special(upper string) (string, bool) {
	for _, r := range n.rules.SpecialCases {
		if strings.Contains(upper, r.Match) {
			return r.Replace, true
		}
	}
	return "", false
}

var defaultNormalizer = NewNameNormalizer(DefaultRules())

// NormalizeOrganization applies the default rule tables.
func NormalizeOrganization(name string) string {
	return defaultNormalizer.NormalizeOrganization(name)
}

// NormalizeCity applies the default city table.
func NormalizeCity(city string) string {
	return defaultNormalizer.NormalizeCity(city)
}

func cleanRules(in []Rule) []Rule {
	out := make([]Rule, 0, len(in))
	for _, r := range in {
		m := strings.ToUpper(strings.TrimSpace(r.Match))
		if m == "" {
			continue
		}
		out = append(out, Rule{Match: m, Replace: r.Replace})
	}
	return out
}

// collapse folds runs of whitespace to one space and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
