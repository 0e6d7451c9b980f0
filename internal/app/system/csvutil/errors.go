package csvutil

import (
	"strconv"
	"strings"
)

// FormatRowErrors summarises row errors in one message. At most maxShow rows
// are listed (5 when maxShow <= 0).
func FormatRowErrors(errs []RowError, maxShow int) string {
	if maxShow <= 0 {
		maxShow = 5
	}
	n := min(maxShow, len(errs))

	var b strings.Builder
	b.WriteString("CSV file contains errors")
	for i := 0; i < n; i++ {
		e := errs[i]
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		if e.Line > 0 {
			b.WriteString("line ")
			b.WriteString(strconv.Itoa(e.Line))
			b.WriteString(": ")
		}
		b.WriteString(e.Reason)
	}
	if len(errs) > n {
		b.WriteString("; and ")
		b.WriteString(strconv.Itoa(len(errs) - n))
		b.WriteString(" more")
	}
	return b.String()
}
