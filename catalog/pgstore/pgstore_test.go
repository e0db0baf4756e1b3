package pgstore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRows serves fixed text columns.
type scriptedRows struct {
	pgx.Rows
	vals   [][]string
	i      int
	closed bool
}

func (r *scriptedRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *scriptedRows) Scan(dest ...any) error {
	row := r.vals[r.i-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d dest for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		*(d.(*string)) = row[i]
	}
	return nil
}

func (r *scriptedRows) Close()     { r.closed = true }
func (r *scriptedRows) Err() error { return nil }

type tableData map[string][][]string

func (t tableData) rows(sql string) *scriptedRows {
	for _, table := range []string{"dish", "submenu", "menu"} {
		if strings.Contains(sql, "FROM "+table+" ") {
			return &scriptedRows{vals: t[table]}
		}
	}
	return &scriptedRows{}
}

type recordingTx struct {
	pgx.Tx
	data       tableData
	queries    int
	rolledBack bool
}

func (tx *recordingTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	tx.queries++
	return tx.data.rows(sql), nil
}

func (tx *recordingTx) Rollback(context.Context) error {
	tx.rolledBack = true
	return nil
}

type recordingDB struct {
	DB
	tx      *recordingTx
	opts    []pgx.TxOptions
	queries int
}

func (db *recordingDB) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	db.opts = append(db.opts, opts)
	return db.tx, nil
}

func (db *recordingDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	db.queries++
	return db.tx.data.rows(sql), nil
}

func TestNestedReadsOneSnapshot(t *testing.T) {
	data := tableData{
		"menu": {{"m1", "Lunch", "noon"}, {"m2", "Dinner", "late"}},
		"submenu": {
			{"s1", "m1", "Soups", "hot"},
			{"s2", "m1", "Salads", "cold"},
		},
		"dish": {
			{"d1", "s1", "Borscht", "beet", "12.56"},
			{"d2", "s2", "Olivier", "classic", "7.00"},
		},
	}
	db := &recordingDB{tx: &recordingTx{data: data}}

	tree, err := New(db).Nested(context.Background())
	require.NoError(t, err)

	require.Len(t, db.opts, 1)
	assert.Equal(t, pgx.RepeatableRead, db.opts[0].IsoLevel)
	assert.Equal(t, pgx.ReadOnly, db.opts[0].AccessMode)
	assert.Equal(t, 3, db.tx.queries, "all reads go through the snapshot")
	assert.Zero(t, db.queries, "no read bypasses the snapshot")
	assert.True(t, db.tx.rolledBack)

	require.Len(t, tree, 2)
	require.Len(t, tree[0].Submenus, 2)
	assert.Equal(t, "Borscht", tree[0].Submenus[0].Dishes[0].Title)
	assert.Equal(t, "12.56", tree[0].Submenus[0].Dishes[0].Price.String())
	assert.Equal(t, "Olivier", tree[0].Submenus[1].Dishes[0].Title)
	assert.NotNil(t, tree[1].Submenus)
	assert.Empty(t, tree[1].Submenus)
}
