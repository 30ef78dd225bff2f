package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one result row keyed by column name.
type Row map[string]any

// QueryResult is a tabular statement result.
type QueryResult struct {
	Columns []string `json:"columns" jsonschema:"column names in select order"`
	Rows    []Row    `json:"rows" jsonschema:"rows as column name to value maps"`
	Count   int      `json:"count" jsonschema:"number of rows returned"`
}

// Query runs a row-returning statement verbatim and serializes the result.
// Values are converted per column type: integer and float columns become
// numbers, temporal values RFC 3339 strings, remaining bytes strings, and
// NULL stays null.
func (c *Client) Query(ctx context.Context, stmt string) (*QueryResult, error) {
	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, classifyStatement(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: []Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i], columnTypes[i].DatabaseTypeName())
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.Count = len(result.Rows)
	return result, nil
}

// Exec runs a non-returning statement verbatim and reports the affected-row
// count.
func (c *Client) Exec(ctx context.Context, stmt string) (int64, error) {
	result, err := c.db.ExecContext(ctx, stmt)
	if err != nil {
		return 0, classifyStatement(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// normalizeValue converts a driver value into a JSON-friendly one. The text
// protocol delivers most values as raw bytes, so numeric columns are parsed
// back into numbers using the column's database type.
func normalizeValue(v any, dbType string) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return convertBytes(t, dbType)
	default:
		return v
	}
}

func convertBytes(b []byte, dbType string) any {
	s := string(b)
	switch strings.TrimPrefix(dbType, "UNSIGNED ") {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	// DECIMAL stays a string to preserve precision.
	return s
}
