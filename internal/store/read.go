package store

import (
	"context"
	"fmt"
)

// RunRecord is one stored harness invocation.
type RunRecord struct {
	ID             int64
	CreatedAt      string
	Scenario       string
	Deck1, Deck2   string
	P1, P2         string
	Seed           int64
	Replays        int
	Passed         int
	Failed         int
	DriverFailures int
}

// TrialRecord is one stored trial verdict.
type TrialRecord struct {
	RunID      int64
	TrialIndex int
	Verdict    string
	Decisions  int
	Plan       string
	Detail     string
}

// ListRuns returns the most recent runs, newest first.
// Returns an empty slice (not nil) when the database has no runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, scenario, deck1, deck2, p1_strategy, p2_strategy,
		       seed, replays, passed, failed, driver_failures
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Scenario, &r.Deck1, &r.Deck2,
			&r.P1, &r.P2, &r.Seed, &r.Replays, &r.Passed, &r.Failed, &r.DriverFailures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTrials returns all trial rows for a run, in trial order.
func (s *Store) ReadTrials(ctx context.Context, runID int64) ([]TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, trial_index, verdict, decisions, plan, detail
		FROM trials
		WHERE run_id = ?
		ORDER BY trial_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	defer rows.Close()

	trials := []TrialRecord{}
	for rows.Next() {
		var t TrialRecord
		if err := rows.Scan(&t.RunID, &t.TrialIndex, &t.Verdict, &t.Decisions, &t.Plan, &t.Detail); err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		trials = append(trials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trials: %w", err)
	}
	return trials, nil
}
