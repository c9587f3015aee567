package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/insightgate/insightgate/internal/nl2sql"
	"github.com/insightgate/insightgate/internal/observability"
	"github.com/insightgate/insightgate/internal/sqlguard"
	"github.com/insightgate/insightgate/internal/warehouse"
)

// QueryRunner is the executor surface the coordinator needs.
type QueryRunner interface {
	Execute(ctx context.Context, request warehouse.Request) (warehouse.QueryResult, error)
}

type StepResult struct {
	Name   string                `json:"name"`
	Result warehouse.QueryResult `json:"result"`
}

type Outcome struct {
	Type      Type         `json:"analysis_type"`
	Question  string       `json:"question"`
	Steps     []StepResult `json:"steps"`
	Summary   string       `json:"summary,omitempty"`
	Failed    bool         `json:"failed"`
	Error     string       `json:"error,omitempty"`
	StepCount int          `json:"step_count"`
}

// Coordinator executes analysis plans step by step, in declared order. Steps
// are validated defensively even though they are statically defined, and a
// step failure ends the run with whatever results were already collected.
type Coordinator struct {
	runner     QueryRunner
	validator  *sqlguard.Validator
	summarizer nl2sql.Summarizer
	logger     *slog.Logger
	now        func() time.Time
}

func NewCoordinator(runner QueryRunner, validator *sqlguard.Validator, summarizer nl2sql.Summarizer, logger *slog.Logger) (*Coordinator, error) {
	if runner == nil {
		return nil, fmt.Errorf("query runner is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		runner:     runner,
		validator:  validator,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Run builds and executes the plan for the given analysis type. Plan
// construction errors are returned as Go errors; step failures produce a
// Failed outcome carrying the partial results.
func (c *Coordinator) Run(ctx context.Context, analysisType Type, params Params) (Outcome, error) {
	plan, err := BuildPlan(analysisType, params, c.now())
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Type:      plan.Type,
		Question:  plan.Question,
		Steps:     make([]StepResult, 0, len(plan.Steps)),
		StepCount: len(plan.Steps),
	}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return c.failed(outcome, plan, step.Name, fmt.Errorf("analysis cancelled: %w", err)), nil
		}

		if result := c.validator.Validate(step.SQL); !result.Valid {
			err := fmt.Errorf("step %s failed validation: %w", step.Name, result.Rejection)
			observability.ObserveAnalysisStep(string(plan.Type), err)
			return c.failed(outcome, plan, step.Name, err), nil
		}

		queryResult, err := c.runner.Execute(ctx, warehouse.Request{
			SQL:      step.SQL,
			Args:     step.Args,
			Question: plan.Question,
		})
		observability.ObserveAnalysisStep(string(plan.Type), err)
		if err != nil {
			return c.failed(outcome, plan, step.Name, fmt.Errorf("step %s: %w", step.Name, err)), nil
		}
		outcome.Steps = append(outcome.Steps, StepResult{Name: step.Name, Result: queryResult})
	}

	if c.summarizer != nil {
		columns, rows := flattenSteps(outcome.Steps)
		summary, err := c.summarizer.Summarize(ctx, plan.Question, columns, rows)
		if err != nil {
			c.logger.WarnContext(ctx, "analysis summarization failed",
				slog.String("analysis_type", string(plan.Type)),
				slog.Any("error", err),
			)
		} else {
			outcome.Summary = summary
		}
	}

	return outcome, nil
}

func (c *Coordinator) failed(outcome Outcome, plan Plan, stepName string, err error) Outcome {
	c.logger.Warn("analysis failed",
		slog.String("analysis_type", string(plan.Type)),
		slog.String("step", stepName),
		slog.Int("completed_steps", len(outcome.Steps)),
		slog.Any("error", err),
	)
	outcome.Failed = true
	outcome.Error = err.Error()
	return outcome
}

// flattenSteps folds the per-step tables into one two-column table so a single
// summarization call sees every result.
func flattenSteps(steps []StepResult) ([]string, [][]any) {
	columns := []string{"step", "result_json"}
	rows := make([][]any, 0, len(steps))
	for _, step := range steps {
		encoded, err := json.Marshal(step.Result)
		if err != nil {
			encoded = []byte(`{"error":"unencodable result"}`)
		}
		rows = append(rows, []any{step.Name, string(encoded)})
	}
	return columns, rows
}
