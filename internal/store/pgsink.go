package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/database"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// Beginner starts transactions; *pgxpool.Pool satisfies it
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const ranksTable = "fund_profile_ranks"

var rankColumns = []string{"period", "profile", "fund", "fund_name", "score", "rank", "run_id"}

// PGSink publishes rankings to PostgreSQL
type PGSink struct {
	db    Beginner
	runID string
	log   *logger.Logger
}

var _ contracts.RankingSink = (*PGSink)(nil)

// NewPGSink creates a sink tagging every row with runID
func NewPGSink(db Beginner, runID string, log *logger.Logger) *PGSink {
	if log == nil {
		log = logger.Nop()
	}
	return &PGSink{db: db, runID: runID, log: log}
}

// PublishRanks replaces the rows of every (period, profile) present in
// ranks and bulk-loads the new ones in a single transaction. Duplicate
// funds within a (period, profile) keep their first row.
func (s *PGSink) PublishRanks(ctx context.Context, ranks []contracts.RankedFund) (int64, error) {
	if len(ranks) == 0 {
		return 0, nil
	}

	type slot struct{ period, profile string }
	var slots []slot
	seenSlot := make(map[slot]bool)
	seenFund := make(map[[3]string]bool)
	rows := make([]contracts.RankedFund, 0, len(ranks))
	for _, r := range ranks {
		k := slot{r.Period, r.Profile}
		if !seenSlot[k] {
			seenSlot[k] = true
			slots = append(slots, k)
		}
		fk := [3]string{r.Period, r.Profile, r.Fund}
		if seenFund[fk] {
			continue
		}
		seenFund[fk] = true
		rows = append(rows, r)
	}
	if dup := len(ranks) - len(rows); dup > 0 {
		s.log.WithField("duplicates", dup).Warn("Dropped duplicate fund rows before publishing")
	}

	var copied int64
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, database.Schema); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		for _, k := range slots {
			if _, err := tx.Exec(ctx,
				"DELETE FROM "+ranksTable+" WHERE period = $1 AND profile = $2",
				k.period, k.profile,
			); err != nil {
				return fmt.Errorf("clear %s/%s: %w", k.profile, k.period, err)
			}
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{ranksTable}, rankColumns,
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				r := rows[i]
				return []any{r.Period, r.Profile, r.Fund, r.Name, r.Score, int32(r.Rank), s.runID}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy into %s: %w", ranksTable, err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(map[string]interface{}{
		"rows":   copied,
		"slots":  len(slots),
		"run_id": s.runID,
	}).Info("Published rankings")
	return copied, nil
}
