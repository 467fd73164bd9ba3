package transform

import (
	"strings"
	"time"
)

// noticeDateLayouts are the shapes RePORTER uses for award_notice_date.
var noticeDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// FormatNoticeDate rewrites a YYYY-MM-DD date (optionally with a time part)
// as MM/DD/YY. Anything it cannot parse is returned unchanged.
func FormatNoticeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	for _, layout := range noticeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("01/02/06")
		}
	}
	return raw
}
