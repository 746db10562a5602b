package postgres

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRows serves fixed rows through the pgx.Rows interface
type fakeRows struct {
	columns []string
	rows    [][]any
	pos     int
	err     error
	closed  bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Scan(...any) error             { return errors.New("not supported") }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
	args []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestFetchPage(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{
		columns: []string{"id", "name", "score"},
		rows: [][]any{
			{int64(4), "dave", float64(1.5)},
			{int64(5), "erin", nil},
		},
	}}
	s := newSource(q, "", "", zap.NewNop())

	docs, err := s.FetchPage(context.Background(), "users", 3, 3)
	require.NoError(t, err)

	assert.Equal(t, `SELECT * FROM "public"."users" ORDER BY "id" LIMIT $1 OFFSET $2`, q.sql)
	assert.Equal(t, []any{3, 3}, q.args)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(4), docs[0]["id"])
	assert.Equal(t, "erin", docs[1]["name"])
	assert.Nil(t, docs[1]["score"])
	assert.True(t, q.rows.closed)
}

func TestFetchPage_CustomSchemaAndKey(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{}}
	s := newSource(q, "sales", "order_no", zap.NewNop())
	assert.Equal(t, "order_no", s.PrimaryKey())

	docs, err := s.FetchPage(context.Background(), "orders", 0, 500)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, `SELECT * FROM "sales"."orders" ORDER BY "order_no" LIMIT $1 OFFSET $2`, q.sql)
}

func TestFetchPage_Errors(t *testing.T) {
	s := newSource(&fakeQuerier{err: errors.New("relation does not exist")}, "", "", zap.NewNop())
	_, err := s.FetchPage(context.Background(), "users", 0, 10)
	assert.ErrorContains(t, err, "relation does not exist")

	s = newSource(&fakeQuerier{rows: &fakeRows{err: errors.New("conn closed")}}, "", "", zap.NewNop())
	_, err = s.FetchPage(context.Background(), "users", 0, 10)
	assert.ErrorContains(t, err, "conn closed")
}

func TestConvertValue(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	id := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"time", at, "2024-05-06T07:08:09Z"},
		{"date", pgtype.Date{Time: at, Valid: true}, "2024-05-06"},
		{"null int", pgtype.Int8{}, nil},
		{"int4", pgtype.Int4{Int32: 7, Valid: true}, int32(7)},
		{"numeric", pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Valid: true}, 12.5},
		{"uuid bytes", id, "12345678-9abc-def0-1234-56789abcdef0"},
		{"bytes", []byte("raw"), "raw"},
		{"jsonb", map[string]any{"k": []any{at}}, map[string]any{"k": []any{"2024-05-06T07:08:09Z"}}},
		{"other", []int32{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertValue(tt.in))
		})
	}
}
