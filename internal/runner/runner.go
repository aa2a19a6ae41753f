// Package runner orchestrates determinism trials.
//
// One trial runs the simulation continuously, extracts its decision
// trace, generates a randomized segment plan seeded by the trial index,
// replays the same logical decisions across the plan's suspend/resume
// boundaries, and compares the two runs' filtered action sequences and
// canonical final states. Trials are self-contained (isolated workdir,
// no shared mutable state) and safely parallelizable.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/roach88/stopgo/internal/compare"
	"github.com/roach88/stopgo/internal/driver"
	"github.com/roach88/stopgo/internal/plan"
	"github.com/roach88/stopgo/internal/trace"
)

// Default player names in the simulator's transcript. The turn-owner
// markers are keyed to these.
const (
	DefaultP1Name = "Alice"
	DefaultP2Name = "Bob"
)

// Scenario is one simulation configuration to verify: decks, strategy
// assignment, and seed, replayed over a number of randomized trials.
type Scenario struct {
	// Name labels artifacts and reports.
	Name string

	// Driver carries the binary path, decks, strategies, seed,
	// verbosity, and per-invocation timeout.
	Driver driver.Config

	// Replays is how many randomized trials to run. Each trial gets a
	// fresh segment plan seeded by its index.
	Replays int

	// TargetStops is the requested suspend count per trial.
	TargetStops int

	// Workers bounds concurrent trials. Values below 1 mean serial.
	Workers int

	// Retain keeps filtered logs and state captures under ArtifactDir.
	Retain bool

	// ArtifactDir is where retained artifacts are written.
	ArtifactDir string

	// WorkBase overrides the base directory for trial workdirs
	// (defaults to the system temp directory).
	WorkBase string

	// P1Name and P2Name override the transcript player names.
	P1Name, P2Name string

	Logger *slog.Logger
}

func (s *Scenario) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Scenario) playerNames() (string, string) {
	p1, p2 := s.P1Name, s.P2Name
	if p1 == "" {
		p1 = DefaultP1Name
	}
	if p2 == "" {
		p2 = DefaultP2Name
	}
	return p1, p2
}

// TrialResult is the verdict for one trial.
type TrialResult struct {
	TrialIndex int

	// Plan is the segment plan the trial ran, nil on early driver
	// failure or the degenerate zero-decision path.
	Plan *plan.Plan

	// Driver is set when the external executable crashed, timed out,
	// or omitted an artifact. No comparison was attempted.
	Driver *driver.Error

	// Report holds both comparison axes; nil when Driver is set.
	Report *compare.Report

	// Decisions is the combined decision count extracted from the
	// continuous run.
	Decisions int
}

// Passed reports whether the trial certified determinism.
func (r *TrialResult) Passed() bool {
	return r.Driver == nil && r.Report != nil && r.Report.Pass()
}

// Verdict classifies the trial for reporting and storage.
// One of: pass, driver-failure, log-divergence, state-divergence,
// log+state-divergence.
func (r *TrialResult) Verdict() string {
	if r.Driver != nil {
		return "driver-failure"
	}
	if r.Report == nil {
		return "driver-failure"
	}
	logBad := r.Report.Log != nil && !r.Report.Log.Matches
	stateBad := r.Report.State != nil && !r.Report.State.Matches
	switch {
	case logBad && stateBad:
		return "log+state-divergence"
	case logBad:
		return "log-divergence"
	case stateBad:
		return "state-divergence"
	default:
		return "pass"
	}
}

// Summary aggregates all trial verdicts for one scenario.
type Summary struct {
	Scenario string
	Results  []*TrialResult

	Passed         int
	Failed         int
	DriverFailures int
}

// Pass reports whether every trial passed.
func (s *Summary) Pass() bool { return s.Failed == 0 && len(s.Results) > 0 }

// Run executes all of a scenario's trials and aggregates verdicts.
// Trials run with bounded parallelism; each owns an isolated workdir.
func Run(ctx context.Context, sc *Scenario) (*Summary, error) {
	replays := sc.Replays
	if replays < 1 {
		replays = 1
	}
	workers := sc.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > replays {
		workers = replays
	}

	results := make([]*TrialResult, replays)
	errs := make([]error, replays)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := 0; i < replays; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx], errs[idx] = runTrial(ctx, sc, idx)
		}(i)
	}
	wg.Wait()

	summary := &Summary{Scenario: sc.Name}
	for i, r := range results {
		if errs[i] != nil {
			return nil, fmt.Errorf("trial %d: %w", i, errs[i])
		}
		summary.Results = append(summary.Results, r)
		if r.Passed() {
			summary.Passed++
		} else {
			summary.Failed++
			if r.Driver != nil {
				summary.DriverFailures++
			}
		}
	}
	return summary, nil
}

// planSeed derives the plan RNG seed from the scenario seed and trial
// index, so a failing trial's plan can be regenerated exactly.
func planSeed(scenarioSeed int64, trialIndex int) int64 {
	return scenarioSeed*31 + int64(trialIndex)
}

// runTrial executes one continuous + segmented run pair.
//
// Returned errors are harness infrastructure problems (workdir
// creation, artifact writes); driver and determinism failures are
// carried in the TrialResult.
func runTrial(ctx context.Context, sc *Scenario, trialIndex int) (*TrialResult, error) {
	log := sc.logger().With("scenario", sc.Name, "trial", trialIndex)
	result := &TrialResult{TrialIndex: trialIndex}

	work, err := driver.NewWorkdir(sc.WorkBase)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := work.Cleanup(); err != nil {
			log.Warn("workdir cleanup failed", "dir", work.Dir(), "error", err)
		}
	}()

	cfg := sc.Driver
	cfg.Logger = log
	drv := driver.New(cfg, work)

	p1Name, p2Name := sc.playerNames()
	extractor := trace.NewExtractor(p1Name, p2Name)

	// Mode A: continuous run, capture trace and final state.
	contOut, err := drv.RunContinuous(ctx, true)
	if err != nil {
		if recordDriverFailure(result, err, log) {
			return result, nil
		}
		return nil, err
	}
	contExtract := extractor.Parse(contOut.Transcript)
	result.Decisions = contExtract.TotalDecisions()
	if contExtract.Unparsed > 0 {
		log.Warn("decision trace has unparseable entries, replay fidelity degraded",
			"unparsed", contExtract.Unparsed)
	}

	// Mode B: segmented run replaying the extracted trace. A trace
	// with zero decisions cannot be segmented; run one continuous
	// terminal segment instead.
	var segPlan *plan.Plan
	if result.Decisions == 0 {
		log.Warn("no decisions extracted, running segmented side as a single continuous segment")
		segPlan = &plan.Plan{Segments: []plan.Segment{{Offset: 0, Length: 0}}}
	} else {
		rng := rand.New(rand.NewSource(planSeed(sc.Driver.Seed, trialIndex)))
		segPlan, err = plan.New(result.Decisions, sc.TargetStops, rng)
		if err != nil {
			return nil, err
		}
		result.Plan = segPlan
		log.Debug("segment plan generated", "plan", segPlan.String())
	}

	segOut, err := drv.RunSegmented(ctx, segPlan, contExtract, true)
	if err != nil {
		if recordDriverFailure(result, err, log) {
			return result, nil
		}
		return nil, err
	}
	segExtract := extractor.Parse(segOut.Transcript)

	result.Report = &compare.Report{
		Log:   compare.Sequences(contExtract.Actions, segExtract.Actions),
		State: compare.States(contOut.Capture.CanonicalState(), segOut.Capture.CanonicalState()),
	}

	if sc.Retain {
		if err := retainArtifacts(sc, trialIndex, contExtract, segExtract, contOut, segOut); err != nil {
			return nil, err
		}
	}

	log.Info("trial finished", "verdict", result.Verdict(), "decisions", result.Decisions)
	return result, nil
}

// recordDriverFailure stores a *driver.Error on the result. Returns
// false when the error is not a driver failure (infrastructure error,
// bubbled up to the caller).
func recordDriverFailure(result *TrialResult, err error, log *slog.Logger) bool {
	var dErr *driver.Error
	if errors.As(err, &dErr) {
		result.Driver = dErr
		log.Error("driver failure, trial aborted", "stage", dErr.Stage, "error", dErr)
		return true
	}
	return false
}
