package record

import (
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/oakdb/oakdb/internal/oakerr"
)

// dateLayout is the Go reference-time layout equivalent of the %Y-%m-%d
// strftime format the fill rules require (§4.1: "(Date, StrLit s):
// parse %Y-%m-%d; fail with InvalidDate").
var dateLayout = strftime.Layout("%Y-%m-%d")

// ParseDate parses a "%Y-%m-%d" string into the fixed 32-bit date
// encoding (§3: "Date is stored as a fixed 32-bit encoding") — days
// since the Unix epoch, UTC.
func ParseDate(s string) (int32, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, oakerr.Wrap(oakerr.InvalidDate, err, "%q is not a valid date", s)
	}
	days := t.Unix() / 86400
	return int32(days), nil
}

// FormatDate renders the fixed 32-bit date encoding back to
// "YYYY-MM-DD" (§6 Result surface: "dates as YYYY-MM-DD").
func FormatDate(encoded int32) string {
	t := time.Unix(int64(encoded)*86400, 0).UTC()
	return strftime.Format("%Y-%m-%d", t)
}
