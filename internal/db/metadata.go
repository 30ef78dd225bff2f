package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TableInfo is one table's metadata from information_schema.
type TableInfo struct {
	Name      string `json:"name" jsonschema:"table name"`
	Comment   string `json:"comment,omitempty" jsonschema:"table comment"`
	Engine    string `json:"engine,omitempty" jsonschema:"storage engine"`
	Rows      int64  `json:"rows" jsonschema:"estimated row count"`
	CreatedAt string `json:"created_at,omitempty" jsonschema:"creation time, RFC 3339"`
	UpdatedAt string `json:"updated_at,omitempty" jsonschema:"last update time, RFC 3339"`
}

// ColumnInfo is one column descriptor, in the table's native column order.
type ColumnInfo struct {
	Name     string  `json:"name" jsonschema:"column name"`
	Type     string  `json:"type" jsonschema:"declared column type"`
	Nullable bool    `json:"nullable" jsonschema:"whether NULL is allowed"`
	Key      string  `json:"key,omitempty" jsonschema:"key designation: PRI, UNI or MUL"`
	Default  *string `json:"default" jsonschema:"default value, null when none"`
	Extra    string  `json:"extra,omitempty" jsonschema:"extra attributes such as auto_increment"`
	Comment  string  `json:"comment,omitempty" jsonschema:"column comment"`
}

// IndexInfo is one index with its columns in sequence order.
type IndexInfo struct {
	Name    string   `json:"name" jsonschema:"index name"`
	Unique  bool     `json:"unique" jsonschema:"whether the index enforces uniqueness"`
	Columns []string `json:"columns" jsonschema:"indexed columns in order"`
}

// TableSchema is the full describe_table result.
type TableSchema struct {
	Table   TableInfo    `json:"table" jsonschema:"table metadata"`
	Columns []ColumnInfo `json:"columns" jsonschema:"columns in ordinal position order"`
	Indexes []IndexInfo  `json:"indexes" jsonschema:"indexes with their column sequences"`
}

const listTablesQuery = `
SELECT TABLE_NAME, TABLE_COMMENT, ENGINE, TABLE_ROWS, CREATE_TIME, UPDATE_TIME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE()
ORDER BY TABLE_NAME`

const tableInfoQuery = `
SELECT TABLE_NAME, TABLE_COMMENT, ENGINE, TABLE_ROWS, CREATE_TIME, UPDATE_TIME
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`

const columnsQuery = `
SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT, EXTRA, COLUMN_COMMENT
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

const indexesQuery = `
SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME
FROM information_schema.STATISTICS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`

// ListTables returns the tables of the configured schema ordered by name. An
// empty schema yields an empty slice, not an error.
func (c *Client) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := c.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, classifyMetadata(err)
	}
	defer rows.Close()

	tables := []TableInfo{}
	for rows.Next() {
		info, err := scanTableInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

// DescribeTable returns the table's metadata, its columns in ordinal
// position order, and its indexes. A table absent from the configured schema
// is a NotFoundError.
func (c *Client) DescribeTable(ctx context.Context, table string) (*TableSchema, error) {
	infoRows, err := c.db.QueryContext(ctx, tableInfoQuery, table)
	if err != nil {
		return nil, classifyMetadata(err)
	}
	defer infoRows.Close()

	if !infoRows.Next() {
		if err := infoRows.Err(); err != nil {
			return nil, fmt.Errorf("error reading table info: %w", err)
		}
		return nil, notFoundError(table)
	}
	info, err := scanTableInfo(infoRows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan table info: %w", err)
	}
	infoRows.Close()

	columns, err := c.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	indexes, err := c.tableIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	return &TableSchema{Table: info, Columns: columns, Indexes: indexes}, nil
}

func (c *Client) tableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := c.db.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, classifyMetadata(err)
	}
	defer rows.Close()

	columns := []ColumnInfo{}
	for rows.Next() {
		var (
			col      ColumnInfo
			nullable string
			def      sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Key, &def, &col.Extra, &col.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan column row: %w", err)
		}
		col.Nullable = nullable == "YES"
		if def.Valid {
			col.Default = &def.String
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

func (c *Client) tableIndexes(ctx context.Context, table string) ([]IndexInfo, error) {
	rows, err := c.db.QueryContext(ctx, indexesQuery, table)
	if err != nil {
		return nil, classifyMetadata(err)
	}
	defer rows.Close()

	indexes := []IndexInfo{}
	byName := map[string]int{}
	for rows.Next() {
		var (
			name      string
			nonUnique int
			column    string
		)
		if err := rows.Scan(&name, &nonUnique, &column); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		i, ok := byName[name]
		if !ok {
			i = len(indexes)
			byName[name] = i
			indexes = append(indexes, IndexInfo{Name: name, Unique: nonUnique == 0})
		}
		indexes[i].Columns = append(indexes[i].Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index rows: %w", err)
	}
	return indexes, nil
}

// scanTableInfo reads one information_schema.TABLES row. ENGINE and the
// timestamps are NULL for views and some system tables.
func scanTableInfo(rows *sql.Rows) (TableInfo, error) {
	var (
		info      TableInfo
		engine    sql.NullString
		tableRows sql.NullInt64
		created   sql.NullTime
		updated   sql.NullTime
	)
	if err := rows.Scan(&info.Name, &info.Comment, &engine, &tableRows, &created, &updated); err != nil {
		return TableInfo{}, err
	}
	info.Engine = engine.String
	info.Rows = tableRows.Int64
	if created.Valid {
		info.CreatedAt = created.Time.Format(time.RFC3339)
	}
	if updated.Valid {
		info.UpdatedAt = updated.Time.Format(time.RFC3339)
	}
	return info, nil
}
