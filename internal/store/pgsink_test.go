package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
)

// fakeTx records statements; unimplemented pgx.Tx methods panic
type fakeTx struct {
	pgx.Tx

	execs      []string
	execArgs   [][]any
	copyTable  pgx.Identifier
	copyCols   []string
	copied     [][]any
	copyErr    error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	t.execArgs = append(t.execArgs, args)
	return pgconn.NewCommandTag("OK"), nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, name pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	if t.copyErr != nil {
		return 0, t.copyErr
	}
	t.copyTable = name
	t.copyCols = cols
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		t.copied = append(t.copied, vals)
	}
	return int64(len(t.copied)), src.Err()
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeDB struct{ tx *fakeTx }

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return d.tx, nil
}

func score(v float64) *float64 { return &v }

func TestPGSinkPublishRanks(t *testing.T) {
	tx := &fakeTx{}
	sink := NewPGSink(&fakeDB{tx: tx}, "run-1", nil)

	n, err := sink.PublishRanks(context.Background(), []contracts.RankedFund{
		{Fund: "F1", Name: "Fund One", Period: "202401", Profile: "conservador", Score: score(0.4), Rank: 1},
		{Fund: "F2", Period: "202401", Profile: "conservador", Rank: 0},
		{Fund: "F1", Period: "202401", Profile: "conservador", Score: score(0.1), Rank: 2},
		{Fund: "F1", Period: "202401", Profile: "arrojado", Score: score(0.9), Rank: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, tx.committed)

	// schema, then one delete per (period, profile)
	require.Len(t, tx.execs, 3)
	assert.Contains(t, tx.execs[0], "CREATE TABLE IF NOT EXISTS fund_profile_ranks")
	assert.True(t, strings.HasPrefix(tx.execs[1], "DELETE FROM fund_profile_ranks"))
	assert.Equal(t, []any{"202401", "conservador"}, tx.execArgs[1])
	assert.Equal(t, []any{"202401", "arrojado"}, tx.execArgs[2])

	assert.Equal(t, pgx.Identifier{"fund_profile_ranks"}, tx.copyTable)
	assert.Equal(t, rankColumns, tx.copyCols)
	require.Len(t, tx.copied, 3)
	assert.Equal(t, []any{"202401", "conservador", "F1", "Fund One", score(0.4), int32(1), "run-1"}, tx.copied[0])
	assert.Nil(t, tx.copied[1][4], "unscored fund publishes a NULL score")
}

func TestPGSinkRollsBack(t *testing.T) {
	tx := &fakeTx{copyErr: errors.New("connection reset")}
	sink := NewPGSink(&fakeDB{tx: tx}, "run-2", nil)

	_, err := sink.PublishRanks(context.Background(), []contracts.RankedFund{
		{Fund: "F1", Period: "202401", Profile: "p", Rank: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPGSinkEmpty(t *testing.T) {
	tx := &fakeTx{}
	n, err := NewPGSink(&fakeDB{tx: tx}, "run-3", nil).PublishRanks(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tx.execs)
}
