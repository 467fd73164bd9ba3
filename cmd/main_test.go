package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/awards-cli/internal/config"
	"github.com/sells-group/awards-cli/pkg/reporter"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// testConfig returns a valid config pointed at baseURL, writing under a
// fresh temp dir with a SQLite store.
func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Reporter: config.ReporterConfig{
			BaseURL:          baseURL,
			UserAgent:        "awards-cli-test",
			TimeoutSecs:      5,
			FiscalYears:      []int{2024},
			OrganizationType: "SCHOOLS OF MEDICINE",
			PageSize:         500,
			MaxOffset:        14999,
			SortField:        "project_start_date",
			SortOrder:        "desc",
			Retry:            config.RetryConfig{MaxAttempts: 1},
		},
		Output: config.OutputConfig{
			Dir:     filepath.Join(dir, "out"),
			Prefix:  "MedicalSchoolsOnly",
			Formats: []string{"csv", "xlsx"},
		},
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "awards.db")},
		Log:   config.LogConfig{Level: "info", Format: "json"},
	}
}

// marchServer answers probes with marchTotal for March 2024 and zero for
// every other month. Chunk requests return two awards.
func marchServer(t *testing.T, marchTotal int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var req reporter.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := reporter.SearchResponse{}
		if req.Criteria.AwardNoticeDate != nil && req.Criteria.AwardNoticeDate.FromDate == "2024-03-01" {
			resp.Meta.Total = marchTotal
			if req.Limit > 1 {
				resp.Results = []reporter.Award{
					{ProjectNum: "5R01CA000001-02", Organization: &reporter.Organization{OrgName: "Yale University School of Medicine", CityName: "New Haven"}},
					{ProjectNum: "1K08HL000002-01", Organization: &reporter.Organization{OrgName: "Mayo Clinic Rochester"}},
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}
