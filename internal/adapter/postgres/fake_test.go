package postgres

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

type execCall struct {
	sql  string
	args []any
}

type commandTag int64

func (c commandTag) RowsAffected() int64 { return int64(c) }

// fakeDB answers queries from canned rows and records every statement
type fakeDB struct {
	execs     []execCall
	affected  int64
	row       []any
	rowErr    error
	rows      [][]any
	committed bool
	rolled    bool
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	f.execs = append(f.execs, execCall{sql, args})
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	f.execs = append(f.execs, execCall{sql, args})
	return fakeRow{values: f.row, err: f.rowErr}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	f.execs = append(f.execs, execCall{sql, args})
	return commandTag(f.affected), nil
}

func (f *fakeDB) Begin(ctx context.Context) (Tx, error) { return &fakeTx{db: f}, nil }

func (f *fakeDB) Close() {}

func (f *fakeDB) last() execCall { return f.execs[len(f.execs)-1] }

type fakeTx struct {
	db   *fakeDB
	done bool
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.done = true
	t.db.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.db.rolled = true
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.rows[r.pos]) }

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() {}

// assign copies values into scan destinations by reflection
func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i := range dest {
		target := reflect.ValueOf(dest[i]).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(values[i]))
	}
	return nil
}

func compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
