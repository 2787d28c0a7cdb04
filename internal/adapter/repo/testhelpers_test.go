package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// valuesRow assigns each value to the matching scan destination. Values must
// have the destination's element type; a nil entry leaves the zero value.
type valuesRow struct {
	values []any
	err    error
}

func (r valuesRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: got %d destinations, have %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		if v == nil {
			continue
		}
		target := reflect.ValueOf(dest[i]).Elem()
		value := reflect.ValueOf(v)
		if !value.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d: cannot assign %s to %s", i, value.Type(), target.Type())
		}
		target.Set(value)
	}
	return nil
}

type valuesRows struct {
	rows []valuesRow
	idx  int
}

func (r *valuesRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *valuesRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return r.rows[r.idx-1].Scan(dest...)
}

func (r *valuesRows) Err() error { return nil }

func (r *valuesRows) Close() {}

func (r *valuesRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *valuesRows) Conn() *pgx.Conn { return nil }

func (r *valuesRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *valuesRows) RawValues() [][]byte { return nil }

func (r *valuesRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

type recordedCall struct {
	query string
	args  []any
}

// stubSQL records calls and answers them with canned rows.
type stubSQL struct {
	calls   []recordedCall
	row     valuesRow
	rows    []valuesRow
	execTag pgconn.CommandTag
	execErr error
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, recordedCall{query: query, args: args})
	return s.execTag, s.execErr
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, recordedCall{query: query, args: args})
	return s.row
}

func (s *stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, recordedCall{query: query, args: args})
	return &valuesRows{rows: s.rows}, nil
}

func (s *stubSQL) last() recordedCall {
	if len(s.calls) == 0 {
		return recordedCall{}
	}
	return s.calls[len(s.calls)-1]
}
