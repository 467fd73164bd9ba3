package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/awards-cli/internal/awards"
)

func TestRunPlan_NoProbe(t *testing.T) {
	c := testConfig(t, "http://example.invalid")
	c.Reporter.FiscalYears = []int{2023, 2024}

	var buf bytes.Buffer
	require.NoError(t, runPlan(context.Background(), c, false, &buf))

	out := buf.String()
	assert.Contains(t, out, "FY2023-01")
	assert.Contains(t, out, "2024-02-01")
	assert.Contains(t, out, "2024-02-29")
	assert.NotContains(t, out, "TOTAL")
	// header + rule + 24 partitions
	assert.Equal(t, 26, strings.Count(out, "\n"))
}

func TestRunPlan_Probe(t *testing.T) {
	srv := marchServer(t, 20000, nil)
	c := testConfig(t, srv.URL)

	var buf bytes.Buffer
	require.NoError(t, runPlan(context.Background(), c, true, &buf))

	out := buf.String()
	assert.Contains(t, out, "20000")
	assert.Contains(t, out, "exceeds window by 5000")
	assert.Contains(t, out, "Total: 20000 across 12 partitions (1 over the 15000-record window)")
}

func TestRunPlan_ProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := testConfig(t, srv.URL)

	var buf bytes.Buffer
	require.NoError(t, runPlan(context.Background(), c, true, &buf))
	assert.Contains(t, buf.String(), "probe failed: reporter: unexpected status 503")
}

func TestFormatPlan(t *testing.T) {
	lines := []planLine{
		{Partition: awards.NewPartition(2024, time.January), Total: 100},
		{Partition: awards.NewPartition(2024, time.February), Total: 16000},
		{Partition: awards.NewPartition(2024, time.March), Err: errors.New(strings.Repeat("x", 100))},
	}

	var buf bytes.Buffer
	formatPlan(&buf, lines, true, 15000)
	out := buf.String()
	assert.Contains(t, out, "exceeds window by 1000")
	assert.Contains(t, out, "probe failed: "+strings.Repeat("x", 57)+"...")
	assert.Contains(t, out, "Total: 16100 across 3 partitions (1 over the 15000-record window)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
