package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules_OverridesTables(t *testing.T) {
	data := []byte(`
city:
  - match: ST LOUIS
    replace: SAINT LOUIS
  - match: NEW YORK CITY
    replace: NEW YORK
`)
	r, err := ParseRules(data)
	require.NoError(t, err)

	require.Len(t, r.City, 2)
	assert.Equal(t, Rule{Match: "ST LOUIS", Replace: "SAINT LOUIS"}, r.City[0])
	// Tables absent from the file keep their defaults.
	assert.Equal(t, DefaultRules().SpecialCases, r.SpecialCases)
	assert.Equal(t, DefaultRules().Organization, r.Organization)
}

func TestParseRules_Invalid(t *testing.T) {
	_, err := ParseRules([]byte("city: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse rules")
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("special_cases:\n  - match: ACME\n    replace: ACME SCHOOL OF MEDICINE\n"), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []Rule{{Match: "ACME", Replace: "ACME SCHOOL OF MEDICINE"}}, r.SpecialCases)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
