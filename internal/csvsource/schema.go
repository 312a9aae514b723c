package csvsource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

const utf8BOM = "\ufeff"

// nullMarkers are the cell values read as SQL NULL, the same set pandas
// treats as missing by default.
var nullMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

var boolValues = map[string]bool{
	"true":  true,
	"True":  true,
	"TRUE":  true,
	"false": false,
	"False": false,
	"FALSE": false,
}

// IsNull reports whether a cell is a null marker.
func IsNull(s string) bool {
	_, ok := nullMarkers[s]
	return ok
}

// NormalizeHeader trims names, strips a byte order mark, names empty cells
// unnamed_<i> and de-duplicates repeats as name.1, name.2...
func NormalizeHeader(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))

	for i, name := range raw {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}

		if n, dup := seen[name]; dup {
			candidate := fmt.Sprintf("%s.%d", name, n)
			for _, taken := seen[candidate]; taken; _, taken = seen[candidate] {
				n++
				candidate = fmt.Sprintf("%s.%d", name, n)
			}
			seen[name] = n + 1
			seen[candidate] = 1
			name = candidate
		} else {
			seen[name] = 1
		}

		names[i] = name
	}

	return names
}

// InferSchema picks a column type for each header name from the non-null
// values in rows. Columns without any value are TEXT.
func InferSchema(names []string, rows [][]string) []pgstage.Column {
	columns := make([]pgstage.Column, len(names))

	for i, name := range names {
		isInt, isFloat, isBool, seen := true, true, true, false

		for _, row := range rows {
			v := row[i]
			if IsNull(v) {
				continue
			}
			seen = true

			if isInt {
				if _, err := strconv.ParseInt(v, 10, 64); err != nil {
					isInt = false
				}
			}
			if isFloat {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					isFloat = false
				}
			}
			if isBool {
				if _, ok := boolValues[v]; !ok {
					isBool = false
				}
			}
			if !isInt && !isFloat && !isBool {
				break
			}
		}

		typ := pgstage.ColumnText
		switch {
		case !seen:
		case isInt:
			typ = pgstage.ColumnBigInt
		case isFloat:
			typ = pgstage.ColumnDouble
		case isBool:
			typ = pgstage.ColumnBoolean
		}
		columns[i] = pgstage.Column{Name: name, Type: typ}
	}

	return columns
}

// Convert turns a row of cells into driver values for columns.
// line is the CSV line the row starts on and is only used in errors.
func Convert(columns []pgstage.Column, row []string, line int) ([]any, error) {
	values := make([]any, len(columns))

	for i, col := range columns {
		v := row[i]
		if IsNull(v) {
			continue
		}

		switch col.Type {
		case pgstage.ColumnBigInt:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, mismatch(line, col, v)
			}
			values[i] = n
		case pgstage.ColumnDouble:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, mismatch(line, col, v)
			}
			values[i] = f
		case pgstage.ColumnBoolean:
			b, ok := boolValues[v]
			if !ok {
				return nil, mismatch(line, col, v)
			}
			values[i] = b
		default:
			values[i] = v
		}
	}

	return values, nil
}

// ConvertChunk converts every row of chunk.
func ConvertChunk(columns []pgstage.Column, chunk *Chunk) ([][]any, error) {
	rows := make([][]any, chunk.Len())
	for i, row := range chunk.Rows {
		values, err := Convert(columns, row, chunk.Lines[i])
		if err != nil {
			return nil, err
		}
		rows[i] = values
	}
	return rows, nil
}

func mismatch(line int, col pgstage.Column, value string) error {
	return fmt.Errorf("line %d, column %q: cannot convert %q to %s: %w",
		line, col.Name, value, col.Type, pgstage.ErrTypeMismatch)
}
