package runner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stopgo/internal/driver"
	"github.com/roach88/stopgo/internal/testutil"
)

func testScenario(t *testing.T, opts testutil.FakeSimOptions) *Scenario {
	t.Helper()

	sim := testutil.WriteFakeSim(t, t.TempDir(), opts)
	return &Scenario{
		Name: "fake_burn_vs_stompy",
		Driver: driver.Config{
			Binary:    sim,
			Deck1:     "burn.json",
			Deck2:     "stompy.json",
			P1:        driver.StrategyRandom,
			P2:        "heuristic",
			Seed:      42,
			Verbosity: 3,
			Timeout:   30 * time.Second,
		},
		Replays:     3,
		TargetStops: 4,
		WorkBase:    t.TempDir(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunDeterministicSimulationPasses(t *testing.T) {
	sc := testScenario(t, testutil.FakeSimOptions{})

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.True(t, summary.Pass())
	assert.Equal(t, 3, summary.Passed)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.DriverFailures)

	require.Len(t, summary.Results, 3)
	for _, r := range summary.Results {
		assert.True(t, r.Passed())
		assert.Equal(t, "pass", r.Verdict())
		assert.Equal(t, 13, r.Decisions)
		require.NotNil(t, r.Plan)
		assert.NoError(t, r.Plan.Validate())
	}
}

func TestRunTrialsGetDistinctPlans(t *testing.T) {
	sc := testScenario(t, testutil.FakeSimOptions{})
	sc.Replays = 6

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, summary.Pass())

	seen := make(map[string]bool)
	for _, r := range summary.Results {
		seen[r.Plan.String()] = true
	}
	assert.Greater(t, len(seen), 1, "every trial drew the same plan")
}

func TestRunParallelWorkers(t *testing.T) {
	sc := testScenario(t, testutil.FakeSimOptions{})
	sc.Replays = 6
	sc.Workers = 3

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, summary.Pass())
	assert.Equal(t, 6, summary.Passed)
}

func TestRunDetectsLogDivergence(t *testing.T) {
	// The fake simulator prints a spurious action line after every
	// resume, so segmented runs see an action the continuous run
	// never produced.
	sc := testScenario(t, testutil.FakeSimOptions{
		ResumeExtraLine: "Alice draws a card",
	})
	sc.Replays = 1

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, summary.Pass())
	require.Len(t, summary.Results, 1)

	r := summary.Results[0]
	assert.False(t, r.Passed())
	assert.Equal(t, "log-divergence", r.Verdict())
	require.NotNil(t, r.Report)
	assert.False(t, r.Report.Log.Matches)
	assert.True(t, r.Report.State.Matches)
	assert.GreaterOrEqual(t, r.Report.Log.FirstDivergingIndex, 0)
}

func TestRunDetectsStateDivergence(t *testing.T) {
	// Runs that were resumed from a snapshot report a different life
	// total in the final state. The action log is unaffected.
	resumed := `{"game_state":{"choice_id":7,"players":[{"name":"Alice","life":20},{"name":"Bob","life":11}],"turn":3},"snapshot_meta":{"format_version":1}}`
	sc := testScenario(t, testutil.FakeSimOptions{
		ResumedFinalState: resumed,
	})
	sc.Replays = 1

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, summary.Pass())
	r := summary.Results[0]
	assert.Equal(t, "state-divergence", r.Verdict())
	require.NotNil(t, r.Report)
	assert.True(t, r.Report.Log.Matches)
	require.False(t, r.Report.State.Matches)
	assert.Contains(t, r.Report.State.Entries[0], "life")
}

func TestRunDriverFailureRecorded(t *testing.T) {
	sc := testScenario(t, testutil.FakeSimOptions{FailExit: 2})
	sc.Replays = 2

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, summary.Pass())
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.DriverFailures)

	for _, r := range summary.Results {
		assert.Equal(t, "driver-failure", r.Verdict())
		require.NotNil(t, r.Driver)
		assert.Equal(t, 2, r.Driver.ExitCode)
		assert.Nil(t, r.Report)
	}
}

func TestRunZeroDecisionsDegrades(t *testing.T) {
	// No decision markers at all: the segmented side runs as a single
	// continuous segment and the comparison still happens.
	sc := testScenario(t, testutil.FakeSimOptions{
		Transcript: "Turn 1\nAlice draws a card\nAlice wins!\nGame Over",
	})
	sc.Replays = 1

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)

	r := summary.Results[0]
	assert.Zero(t, r.Decisions)
	assert.Nil(t, r.Plan)
	assert.True(t, r.Passed())
}

func TestRunEmptyActionLogIsHardFailure(t *testing.T) {
	// A transcript with no vocabulary matches cannot certify anything.
	sc := testScenario(t, testutil.FakeSimOptions{
		Transcript: "booting\nshutting down",
	})
	sc.Replays = 1

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)

	r := summary.Results[0]
	assert.False(t, r.Passed())
	require.NotNil(t, r.Report)
	assert.True(t, r.Report.Log.Degenerate)
}

func TestRunRetainsArtifacts(t *testing.T) {
	sc := testScenario(t, testutil.FakeSimOptions{})
	sc.Replays = 1
	sc.Retain = true
	sc.ArtifactDir = filepath.Join(t.TempDir(), "artifacts")

	summary, err := Run(context.Background(), sc)
	require.NoError(t, err)
	require.True(t, summary.Pass())

	for _, name := range []string{
		"fake_burn_vs_stompy_trial0_continuous.log",
		"fake_burn_vs_stompy_trial0_segmented.log",
		"fake_burn_vs_stompy_trial0_continuous_state.json",
		"fake_burn_vs_stompy_trial0_segmented_state.json",
	} {
		info, err := os.Stat(filepath.Join(sc.ArtifactDir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestPlanSeedReproducible(t *testing.T) {
	assert.Equal(t, planSeed(42, 3), planSeed(42, 3))
	assert.NotEqual(t, planSeed(42, 3), planSeed(42, 4))
	assert.NotEqual(t, planSeed(42, 3), planSeed(43, 3))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "scenario", safeName(""))
	assert.Equal(t, "a_b_c", safeName("a b/c"))
}
