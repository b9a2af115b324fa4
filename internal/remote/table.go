package remote

import (
	"context"
	"fmt"
	"strings"

	"budgetrack/internal/log"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapper describes how one entity maps onto its table. columns[0] is the
// primary key and values returns arguments in column order.
type mapper[T any] struct {
	table    string
	columns  []string
	orderBy  string
	cascades []string
	id       func(T) string
	values   func(T) ([]any, error)
	scan     func(rowScanner) (T, error)
}

// Table is the remote counterpart of one store collection.
type Table[T any] struct {
	c *Client
	m mapper[T]

	selectSQL string
	insertSQL string
	upsertSQL string
	deleteSQL string
}

func newTable[T any](c *Client, m mapper[T]) *Table[T] {
	return &Table[T]{
		c:         c,
		m:         m,
		selectSQL: selectQuery(m.table, m.columns, m.orderBy),
		insertSQL: insertQuery(m.table, m.columns, false),
		upsertSQL: insertQuery(m.table, m.columns, true),
		deleteSQL: fmt.Sprintf("DELETE FROM %s WHERE %s = $1", m.table, m.columns[0]),
	}
}

// Name returns the table name, which matches the store collection key.
func (t *Table[T]) Name() string {
	return t.m.table
}

// GetAll returns every row of the table.
func (t *Table[T]) GetAll(ctx context.Context) ([]T, error) {
	cacheKey := t.m.table + ":all"
	if cached, ok := t.c.cache.Get(cacheKey); ok {
		if items, ok := cached.([]T); ok {
			out := make([]T, len(items))
			copy(out, items)
			return out, nil
		}
	}

	rows, err := t.c.db.QueryContext(ctx, t.selectSQL)
	if err != nil {
		return nil, classify(log.OpList, t.m.table, err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := t.m.scan(rows)
		if err != nil {
			return nil, classify(log.OpList, t.m.table, fmt.Errorf("scan row: %w", err))
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(log.OpList, t.m.table, err)
	}

	t.c.cache.Set(cacheKey, items)
	out := make([]T, len(items))
	copy(out, items)
	return out, nil
}

// Create inserts v. Inserting an id that already exists is a no-op so
// redelivered messages are harmless.
func (t *Table[T]) Create(ctx context.Context, v T) error {
	return t.exec(ctx, log.OpCreate, t.insertSQL, v)
}

// Update writes v, inserting it when the row is missing.
func (t *Table[T]) Update(ctx context.Context, v T) error {
	return t.exec(ctx, log.OpUpdate, t.upsertSQL, v)
}

// Delete removes the row with id. Deleting a missing row is not an error.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if _, err := t.c.db.ExecContext(ctx, t.deleteSQL, id); err != nil {
		return classify(log.OpDelete, t.m.table, err)
	}
	t.invalidate()
	t.c.logger.DebugContext(ctx, "Row deleted", log.FieldCollection, t.m.table, log.FieldEntityID, id)
	return nil
}

func (t *Table[T]) exec(ctx context.Context, op, query string, v T) error {
	args, err := t.m.values(v)
	if err != nil {
		return classify(op, t.m.table, fmt.Errorf("encode row: %w", err))
	}
	if _, err := t.c.db.ExecContext(ctx, query, args...); err != nil {
		return classify(op, t.m.table, err)
	}
	t.invalidate()
	t.c.logger.DebugContext(ctx, "Row written",
		log.FieldCollection, t.m.table,
		log.FieldEntityID, t.m.id(v),
		log.FieldOperation, op,
	)
	return nil
}

func (t *Table[T]) invalidate() {
	t.c.cache.InvalidatePrefix(t.m.table + ":")
	for _, table := range t.m.cascades {
		t.c.cache.InvalidatePrefix(table + ":")
	}
}

func selectQuery(table string, columns []string, orderBy string) string {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	return q
}

// insertQuery builds an INSERT for columns. With upsert the non-key columns
// are overwritten on conflict, otherwise the conflicting row is kept.
func insertQuery(table string, columns []string, upsert bool) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), columns[0])

	if !upsert {
		return q + "DO NOTHING"
	}

	sets := make([]string, 0, len(columns)-1)
	for _, col := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return q + "DO UPDATE SET " + strings.Join(sets, ", ")
}
