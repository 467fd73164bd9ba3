// Package awards pulls RePORTER award records partition by partition and
// reshapes them into the fixed medical-school spreadsheet layout.
package awards

import (
	"fmt"
	"iter"
	"time"
)

const dateLayout = "2006-01-02"

// Partition is one fiscal-year/month slice of the award notice date axis.
// Slicing by month keeps each query's total under the API offset ceiling.
type Partition struct {
	FiscalYear int
	Month      time.Month
	From       time.Time
	To         time.Time
}

// NewPartition builds the partition for a year and month. To is the last
// calendar day of the month.
func NewPartition(year int, month time.Month) Partition {
	return Partition{
		FiscalYear: year,
		Month:      month,
		From:       time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC),
	}
}

// FromDate renders the first day as YYYY-MM-DD.
func (p Partition) FromDate() string { return p.From.Format(dateLayout) }

// ToDate renders the last day as YYYY-MM-DD.
func (p Partition) ToDate() string { return p.To.Format(dateLayout) }

func (p Partition) String() string {
	return fmt.Sprintf("FY%d-%02d", p.FiscalYear, int(p.Month))
}

// Plan yields twelve partitions per fiscal year, in input order and then
// January through December.
func Plan(fiscalYears []int) iter.Seq[Partition] {
	return func(yield func(Partition) bool) {
		for _, fy := range fiscalYears {
			for m := time.January; m <= time.December; m++ {
				if !yield(NewPartition(fy, m)) {
					return
				}
			}
		}
	}
}
