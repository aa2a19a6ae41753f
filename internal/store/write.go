package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/stopgo/internal/driver"
	"github.com/roach88/stopgo/internal/runner"
)

// RecordRun inserts one run row plus a row per trial, atomically.
// Returns the new run id.
func (s *Store) RecordRun(ctx context.Context, cfg driver.Config, summary *runner.Summary) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(scenario, deck1, deck2, p1_strategy, p2_strategy, seed, replays, passed, failed, driver_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.Scenario,
		cfg.Deck1,
		cfg.Deck2,
		cfg.P1,
		cfg.P2,
		cfg.Seed,
		len(summary.Results),
		summary.Passed,
		summary.Failed,
		summary.DriverFailures,
	)
	if err != nil {
		return 0, fmt.Errorf("record run: insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: run id: %w", err)
	}

	for _, trial := range summary.Results {
		planStr := ""
		if trial.Plan != nil {
			planStr = trial.Plan.String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trials (run_id, trial_index, verdict, decisions, plan, detail)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			runID,
			trial.TrialIndex,
			trial.Verdict(),
			trial.Decisions,
			planStr,
			trialDetail(trial),
		); err != nil {
			return 0, fmt.Errorf("record run: insert trial %d: %w", trial.TrialIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record run: commit: %w", err)
	}
	return runID, nil
}

// trialDetail renders a compact failure description for storage.
// Empty for passing trials.
func trialDetail(trial *runner.TrialResult) string {
	if trial.Passed() {
		return ""
	}
	if trial.Driver != nil {
		return trial.Driver.Error()
	}
	if trial.Report == nil {
		return "no comparison report"
	}
	var b strings.Builder
	trial.Report.Render(&b)
	const limit = 4000
	detail := b.String()
	if len(detail) > limit {
		detail = detail[:limit]
	}
	return detail
}
