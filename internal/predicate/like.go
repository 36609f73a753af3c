package predicate

import (
	"regexp"
	"strings"

	"github.com/oakdb/oakdb/internal/oakerr"
)

// compileLike translates a SQL LIKE pattern into a full-match regexp
// (§4.2: "escape regex metacharacters, then % -> .*, _ -> .. Anchor is
// full-match").
func compileLike(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, oakerr.Wrap(oakerr.InvalidLike, err, "invalid LIKE pattern %q", pattern)
	}
	return re, nil
}
