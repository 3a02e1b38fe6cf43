// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/argonaut/pkg/agents"
	"github.com/teradata-labs/argonaut/pkg/types"
)

const (
	// DefaultMaxCycles bounds refinement: a pipeline run executes the
	// agents at most DefaultMaxCycles+1 times.
	DefaultMaxCycles = 3
	// DefaultQualityThreshold is the gate a cycle must clear to stop
	// refining early.
	DefaultQualityThreshold = 0.7

	maxQueryEcho = 200
)

// Pipeline stages reported through ProgressFunc, in execution order.
const (
	StageParseIntent   = "parse_intent"
	StageExecuteAgents = "execute_agents"
	StageAnalyze       = "analyze"
	StageRefine        = "refine"
	StageSynthesize    = "synthesize"
)

// ProgressFunc receives stage transitions while a pipeline run is in
// flight. progress is a percentage estimate in [0,100].
type ProgressFunc func(stage, message string, progress float64)

// IntentParser turns a raw query into a typed intent.
type IntentParser interface {
	Parse(query string) types.Intent
}

// AgentRunner is one specialist agent as the orchestrator sees it. Run
// must honor ctx cancellation and report failures inside the Result
// rather than panicking.
type AgentRunner interface {
	Kind() types.AgentKind
	Run(ctx context.Context, query string, intent types.Intent) agents.Result
}

// Synthesizer folds the final cycle's results into prose.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results map[types.AgentKind]agents.Result) string
}

// CycleState records one executed cycle for introspection and testing.
type CycleState struct {
	CycleIndex int                               `json:"cycle_index"`
	Intent     types.Intent                      `json:"intent"`
	Results    map[types.AgentKind]agents.Result `json:"results"`
	Analysis   *Analysis                         `json:"analysis"`
}

// Config tunes a pipeline run. Zero values select the defaults.
type Config struct {
	MaxCycles        int
	QualityThreshold float64
	AgentTimeout     time.Duration
}

// Orchestrator drives the cyclic pipeline: parse intent, fan out to the
// demanded agents, grade the bundle, refine and repeat until the gate
// clears or the cycle budget runs out, then synthesize.
type Orchestrator struct {
	parser      IntentParser
	agents      map[types.AgentKind]AgentRunner
	analyzer    *Analyzer
	refiner     *Refiner
	coordinator Synthesizer
	cfg         Config
	logger      *zap.Logger
}

// New assembles the pipeline. Runners are indexed by kind; a demanded
// kind with no runner yields an INTERNAL error result for that agent
// rather than failing the run.
func New(parser IntentParser, runners []AgentRunner, coordinator Synthesizer, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = DefaultMaxCycles
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultQualityThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byKind := make(map[types.AgentKind]AgentRunner, len(runners))
	for _, r := range runners {
		byKind[r.Kind()] = r
	}
	return &Orchestrator{
		parser:      parser,
		agents:      byKind,
		analyzer:    NewAnalyzer(cfg.QualityThreshold),
		refiner:     NewRefiner(logger),
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger,
	}
}

// Answer is the outcome of a completed pipeline run.
type Answer struct {
	Response        string       `json:"response"`
	CyclesCompleted int          `json:"cycles_completed"`
	QualityScore    float64      `json:"quality_score"`
	AgentsUsed      []string     `json:"agents_used"`
	Cycles          []CycleState `json:"-"`
}

// Execute runs the full pipeline for one query. progress may be nil.
// The error is non-nil only when the query demands no agents or every
// demanded agent failed in the final cycle; partial failures still
// synthesize from whatever succeeded.
func (o *Orchestrator) Execute(ctx context.Context, query string, progress ProgressFunc) (*Answer, error) {
	report := func(stage, message string, pct float64) {
		if progress != nil {
			progress(stage, message, pct)
		}
	}

	report(StageParseIntent, "Understanding your query", 10)
	intent := o.parser.Parse(query)
	if intent.Agents.IsEmpty() {
		return nil, types.Errorf(types.KindInvalidInput, "query demands no agents: %q", truncateQuery(query))
	}

	o.logger.Info("Starting analysis pipeline",
		zap.String("query", truncateQuery(query)),
		zap.Int("max_cycles", o.cfg.MaxCycles),
		zap.Float64("quality_threshold", o.cfg.QualityThreshold),
		zap.Strings("agents", agentNames(intent.Agents)))

	var cycles []CycleState
	for cycleIndex := 0; ; cycleIndex++ {
		report(StageExecuteAgents, fmt.Sprintf("Executing analysis cycle %d", cycleIndex+1), 30)
		results := o.executeAgents(ctx, query, intent)

		report(StageAnalyze, "Evaluating result quality", 60)
		analysis := o.analyzer.Analyze(intent, results)
		cycles = append(cycles, CycleState{
			CycleIndex: cycleIndex,
			Intent:     intent,
			Results:    results,
			Analysis:   &analysis,
		})

		o.logger.Info("Cycle analyzed",
			zap.Int("cycle", cycleIndex+1),
			zap.Float64("score", analysis.Overall),
			zap.Int("suggestions", len(analysis.Suggestions)),
			zap.Bool("needs_refinement", analysis.NeedsRefinement))

		if analysis.NeedsRefinement && cycleIndex < o.cfg.MaxCycles {
			report(StageRefine, "Refining query parameters", 70)
			intent = o.refiner.Refine(intent, analysis.Suggestions)
			continue
		}
		break
	}

	final := cycles[len(cycles)-1]
	if err := allDemandedFailed(final.Intent, final.Results); err != nil {
		o.logger.Warn("All demanded agents failed",
			zap.Int("cycles", len(cycles)),
			zap.String("kind", string(err.Kind)))
		return nil, err
	}

	report(StageSynthesize, "Synthesizing final response", 90)
	body := o.coordinator.Synthesize(ctx, query, final.Results)

	answer := &Answer{
		Response:        body + trailer(len(cycles), final.Analysis.Overall, final.Analysis.Summary),
		CyclesCompleted: len(cycles),
		QualityScore:    final.Analysis.Overall,
		AgentsUsed:      agentNames(final.Intent.Agents),
		Cycles:          cycles,
	}
	o.logger.Info("Pipeline complete",
		zap.Int("cycles", answer.CyclesCompleted),
		zap.Float64("score", answer.QualityScore))
	return answer, nil
}

// executeAgents fans out to every demanded agent in parallel and waits
// for all of them. Every demanded kind gets exactly one Result; panics
// and deadline overruns are folded into error results so one agent can
// never sink the cycle.
func (o *Orchestrator) executeAgents(ctx context.Context, query string, intent types.Intent) map[types.AgentKind]agents.Result {
	demanded := intent.Agents.Kinds()

	runCtx := ctx
	cancel := func() {}
	if o.cfg.AgentTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.AgentTimeout)
	}
	defer cancel()

	resultsChan := make(chan agents.Result, len(demanded))
	var wg sync.WaitGroup
	for _, kind := range demanded {
		runner, ok := o.agents[kind]
		if !ok {
			resultsChan <- agents.ErrorResult(kind,
				types.Errorf(types.KindInternal, "no runner registered for agent %s", kind), 0)
			continue
		}
		wg.Add(1)
		go func(kind types.AgentKind, runner AgentRunner) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					o.logger.Error("Agent panicked",
						zap.String("agent", string(kind)),
						zap.Any("panic", rec))
					resultsChan <- agents.ErrorResult(kind,
						types.Errorf(types.KindInternal, "agent %s panicked", kind), 0)
				}
			}()
			start := time.Now()
			res := runner.Run(runCtx, query, intent)
			if res.Errored() && runCtx.Err() == context.DeadlineExceeded {
				res = agents.ErrorResult(kind,
					types.Errorf(types.KindAgentTimeout, "agent %s timed out answering %q", kind, truncateQuery(query)),
					time.Since(start))
			}
			resultsChan <- res
		}(kind, runner)
	}
	wg.Wait()
	close(resultsChan)

	results := make(map[types.AgentKind]agents.Result, len(demanded))
	failed := 0
	for res := range resultsChan {
		if res.Errored() {
			failed++
		}
		results[res.Agent] = res
	}
	if failed > 0 && failed < len(demanded) {
		o.logger.Warn("Some agents failed",
			zap.Int("failed", failed),
			zap.Int("demanded", len(demanded)))
	}
	return results
}

// allDemandedFailed returns the most severe agent error when no demanded
// agent produced a usable result, nil otherwise.
func allDemandedFailed(intent types.Intent, results map[types.AgentKind]agents.Result) *types.Error {
	var errs []*types.Error
	for _, kind := range intent.Agents.Kinds() {
		res, ok := results[kind]
		if !ok || !res.Errored() {
			return nil
		}
		errs = append(errs, res.Err)
	}
	return types.MostSevere(errs)
}

// trailer is the process summary appended to every synthesized response.
func trailer(cycles int, score float64, summary string) string {
	return fmt.Sprintf("\n\n---\n**Analysis Process Summary:**\n- Completed %d analysis cycles\n- Final quality score: %.2f\n- %s",
		cycles, score, summary)
}

func agentNames(mask types.AgentMask) []string {
	kinds := mask.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func truncateQuery(query string) string {
	query = strings.TrimSpace(query)
	if len(query) <= maxQueryEcho {
		return query
	}
	return query[:maxQueryEcho] + "..."
}
