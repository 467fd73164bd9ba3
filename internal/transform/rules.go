package transform

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadRules reads rule tables from a YAML file. Tables missing from the file
// fall back to the defaults; a table present in the file replaces the default
// table entirely so its order stays exactly as written.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "transform: read rules file %s", path)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rule tables, merging over DefaultRules.
func ParseRules(data []byte) (Rules, error) {
	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, eris.Wrap(err, "transform: parse rules")
	}
	return Merge(DefaultRules(), file), nil
}

// Merge returns base with every non-empty table of override swapped in.
func Merge(base, override Rules) Rules {
	if len(override.SpecialCases) > 0 {
		base.SpecialCases = override.SpecialCases
	}
	if len(override.Organization) > 0 {
		base.Organization = override.Organization
	}
	if len(override.City) > 0 {
		base.City = override.City
	}
	return base
}
