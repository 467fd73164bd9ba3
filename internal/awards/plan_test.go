package awards

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_SingleYear(t *testing.T) {
	parts := slices.Collect(Plan([]int{2024}))
	require.Len(t, parts, 12)

	for i, p := range parts {
		assert.Equal(t, 2024, p.FiscalYear)
		assert.Equal(t, time.Month(i+1), p.Month)
		assert.Equal(t, 1, p.From.Day())
	}

	feb := parts[1]
	assert.Equal(t, 29, feb.To.Day())
	assert.Equal(t, "2024-02-01", feb.FromDate())
	assert.Equal(t, "2024-02-29", feb.ToDate())
	assert.Equal(t, "FY2024-02", feb.String())
}

func TestPlan_MonthLengths(t *testing.T) {
	parts := slices.Collect(Plan([]int{2023}))
	want := []int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	for i, p := range parts {
		assert.Equal(t, want[i], p.To.Day(), "month %d", i+1)
	}
	assert.Equal(t, 29, NewPartition(2000, time.February).To.Day())
	assert.Equal(t, 28, NewPartition(1900, time.February).To.Day())
}

func TestPlan_OrderAndCoverage(t *testing.T) {
	parts := slices.Collect(Plan([]int{2024, 2022}))
	require.Len(t, parts, 24)
	assert.Equal(t, 2024, parts[0].FiscalYear)
	assert.Equal(t, 2022, parts[12].FiscalYear)

	// No gaps or overlaps within a year.
	for i := 1; i < 12; i++ {
		assert.Equal(t, parts[i-1].To.AddDate(0, 0, 1), parts[i].From)
	}
}

func TestPlan_Restartable(t *testing.T) {
	seq := Plan([]int{2024})
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
}

func TestPlan_EarlyStop(t *testing.T) {
	var n int
	for range Plan([]int{2024}) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	assert.Empty(t, slices.Collect(Plan(nil)))
}
