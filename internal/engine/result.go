package engine

import (
	"strconv"
	"strings"

	"github.com/oakdb/oakdb/internal/aggregate"
	"github.com/oakdb/oakdb/internal/record"
)

// RenderCSV renders a Result the way the CLI prints it (§6 "Result
// surface"): header field is `op(name)` when aggregated, `name`
// otherwise, with `count(*)` as a literal; cells are debug-style text,
// `NULL` for null, dates as `YYYY-MM-DD`.
func RenderCSV(res aggregate.Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(res.Cols, ","))
	b.WriteByte('\n')
	for _, row := range res.Rows {
		fields := make([]string, len(row))
		for i, cell := range row {
			fields[i] = renderCell(cell)
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderCell(c aggregate.Cell) string {
	if c.Null {
		return "NULL"
	}
	switch c.Kind {
	case aggregate.CellInt32:
		return strconv.FormatInt(int64(c.I32), 10)
	case aggregate.CellBool:
		return strconv.FormatBool(c.B)
	case aggregate.CellFloat32:
		return strconv.FormatFloat(float64(c.F32), 'g', -1, 32)
	case aggregate.CellStr:
		return c.Str
	case aggregate.CellDate:
		return record.FormatDate(c.I32)
	case aggregate.CellInt64:
		return strconv.FormatInt(c.I64, 10)
	case aggregate.CellFloat64:
		return strconv.FormatFloat(c.F64, 'g', -1, 64)
	default:
		return "NULL"
	}
}
