package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var valuesConfig = UpsertConfig{
	Table:        "country_values",
	Columns:      []string{"iso3", "field", "year", "value"},
	ConflictKeys: []string{"iso3", "field", "year"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, valuesConfig, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "country_values",
		ConflictKeys: []string{"iso3"},
	}, [][]any{{"USA", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "country_values",
		Columns: []string{"iso3", "value"},
	}, [][]any{{"USA", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_InTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_country_values" \(LIKE "country_values"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_country_values"}, valuesConfig.Columns).WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("iso3", "field", "year"\) DO UPDATE SET "value" = EXCLUDED."value"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	rows := [][]any{{"USA", "gdp", 2020, 1.0}, {"FRA", "gdp", 2020, 2.0}}
	n, err := BulkUpsert(ctx, tx, valuesConfig, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CreateFails(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnError(fmt.Errorf("no privilege"))

	_, err = BulkUpsert(context.Background(), mock, valuesConfig, [][]any{{"USA", "gdp", 2020, 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create temp table for country_values")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"compare.country_values", `"compare"."country_values"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, identifier(tt.input).Sanitize())
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"iso3", "field", "year"`, quoteAndJoin([]string{"iso3", "field", "year"}))
}
