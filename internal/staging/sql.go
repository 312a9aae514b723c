package staging

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// ParseTableName splits an optionally schema-qualified table name ("raw.netflix").
func ParseTableName(name string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("table name %q has too many parts: %w", name, pgstage.ErrInvalidConfig)
	}

	ident := make(pgx.Identifier, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("table name %q has an empty part: %w", name, pgstage.ErrInvalidConfig)
		}
		ident[i] = part
	}
	return ident, nil
}

// DropTableSQL returns DROP TABLE IF EXISTS for table.
func DropTableSQL(table pgx.Identifier) string {
	return "DROP TABLE IF EXISTS " + table.Sanitize()
}

// CreateTableSQL returns CREATE TABLE for table with the given columns.
func CreateTableSQL(table pgx.Identifier, columns []pgstage.Column) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pgx.Identifier{col.Name}.Sanitize() + " " + string(col.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table.Sanitize(), strings.Join(defs, ", "))
}

// Statement is a SQL text with its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

// RowsPerStatement returns how many rows of width columns fit in one INSERT
// without exceeding the bind parameter limit.
func RowsPerStatement(columns int) int {
	if columns <= 0 {
		return 0
	}
	return max(1, pgstage.MaxBindParameters/columns)
}

// InsertStatements splits rows into multi-row INSERT statements, each below
// the bind parameter limit.
func InsertStatements(table pgx.Identifier, columns []pgstage.Column, rows [][]any) []Statement {
	if len(rows) == 0 || len(columns) == 0 {
		return nil
	}

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table.Sanitize(), columnList(columns))
	batch := RowsPerStatement(len(columns))

	statements := make([]Statement, 0, (len(rows)+batch-1)/batch)
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		statements = append(statements, insertStatement(prefix, len(columns), rows[start:end]))
	}
	return statements
}

func insertStatement(prefix string, width int, rows [][]any) Statement {
	var sb strings.Builder
	sb.WriteString(prefix)

	args := make([]any, 0, width*len(rows))
	param := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := 0; j < width; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", param)
			param++
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}

	return Statement{SQL: sb.String(), Args: args}
}

func columnList(columns []pgstage.Column) string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = pgx.Identifier{col.Name}.Sanitize()
	}
	return strings.Join(names, ", ")
}

func columnNames(columns []pgstage.Column) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names
}
