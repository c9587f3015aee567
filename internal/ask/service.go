// Package ask implements the question-to-answer pipeline: pattern cache
// lookup, translation on a miss, validation, row limiting, execution, and
// caching of SQL that ran successfully. Cached templates are re-validated on
// every hit, so the cache can never widen what the guard allows.
package ask

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/insightgate/insightgate/internal/nl2sql"
	"github.com/insightgate/insightgate/internal/observability"
	"github.com/insightgate/insightgate/internal/patterncache"
	"github.com/insightgate/insightgate/internal/sqlguard"
	"github.com/insightgate/insightgate/internal/viz"
	"github.com/insightgate/insightgate/internal/warehouse"
)

// QueryRunner is the executor surface the pipeline needs.
type QueryRunner interface {
	Execute(ctx context.Context, request warehouse.Request) (warehouse.QueryResult, error)
}

type Timings struct {
	TranslateMS int64 `json:"translate_ms"`
	ExecuteMS   int64 `json:"execute_ms"`
	TotalMS     int64 `json:"total_ms"`
}

type Answer struct {
	Question      string                 `json:"question"`
	SQL           string                 `json:"sql,omitempty"`
	Result        *warehouse.QueryResult `json:"result,omitempty"`
	Summary       string                 `json:"summary,omitempty"`
	Chart         *viz.Suggestion        `json:"chart,omitempty"`
	CacheHit      bool                   `json:"cache_hit"`
	Rejected      bool                   `json:"rejected"`
	RejectionCode string                 `json:"rejection_code,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Timings       Timings                `json:"timings"`
}

type Service struct {
	translator nl2sql.Translator
	summarizer nl2sql.Summarizer
	cache      patterncache.Store
	validator  *sqlguard.Validator
	runner     QueryRunner
	maxRows    int
	logger     *slog.Logger
}

func NewService(translator nl2sql.Translator, summarizer nl2sql.Summarizer, cache patterncache.Store, validator *sqlguard.Validator, runner QueryRunner, maxRows int, logger *slog.Logger) (*Service, error) {
	if cache == nil {
		return nil, fmt.Errorf("pattern cache is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("query runner is required")
	}
	if maxRows <= 0 {
		maxRows = sqlguard.DefaultMaxRows
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		translator: translator,
		summarizer: summarizer,
		cache:      cache,
		validator:  validator,
		runner:     runner,
		maxRows:    maxRows,
		logger:     logger,
	}, nil
}

// Ask answers a natural-language question. Rejections are reported in the
// Answer, not as a Go error; errors are reserved for infrastructure failures.
func (s *Service) Ask(ctx context.Context, question, tenant string) (Answer, error) {
	start := time.Now()
	answer := Answer{Question: question}

	if strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("question is required")
	}

	sqlText, cacheHit := s.fromCache(ctx, question)
	answer.CacheHit = cacheHit

	if !cacheHit {
		if s.translator == nil {
			return Answer{}, fmt.Errorf("translation is disabled and no cached pattern matched")
		}
		translateStart := time.Now()
		translated, err := s.translator.Translate(ctx, question)
		answer.Timings.TranslateMS = time.Since(translateStart).Milliseconds()
		observability.ObserveTranslation(err)
		if err != nil {
			return Answer{}, fmt.Errorf("translate question: %w", err)
		}
		sqlText = translated.SQL
	}

	result := s.validator.Validate(sqlText)
	if !result.Valid {
		observability.ObserveValidation(result.Rejection.Code)
		answer.Rejected = true
		answer.RejectionCode = result.Rejection.Code
		answer.Message = result.Rejection.Message
		answer.Timings.TotalMS = time.Since(start).Milliseconds()
		s.logger.InfoContext(ctx, "question rejected",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("reason", result.Rejection.Code),
			slog.Bool("cache_hit", cacheHit),
		)
		return answer, nil
	}
	observability.ObserveValidation("")

	limited := sqlguard.EnforceLimit(result.SQL, s.maxRows)
	answer.SQL = limited

	executeStart := time.Now()
	queryResult, err := s.runner.Execute(ctx, warehouse.Request{
		SQL:      limited,
		Question: question,
		Tenant:   tenant,
	})
	answer.Timings.ExecuteMS = time.Since(executeStart).Milliseconds()
	if err != nil {
		answer.Timings.TotalMS = time.Since(start).Milliseconds()
		return answer, fmt.Errorf("execute query: %w", err)
	}

	// Only SQL that validated and ran to completion is worth caching.
	if !cacheHit {
		s.cache.Put(question, limited)
	}

	answer.Result = &queryResult
	answer.Chart = viz.Suggest(queryResult.Columns, queryResult.Rows, question)

	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(ctx, question, queryResult.Columns, queryResult.Rows)
		if err != nil {
			s.logger.WarnContext(ctx, "summarization failed", slog.Any("error", err))
		} else {
			answer.Summary = summary
		}
	}

	answer.Timings.TotalMS = time.Since(start).Milliseconds()
	return answer, nil
}

// fromCache renders the cached template for the question's pattern. Render
// failures count as misses; the rendered SQL still goes through the full
// validator afterwards.
func (s *Service) fromCache(ctx context.Context, question string) (string, bool) {
	template, ok := s.cache.Get(question)
	observability.ObserveCacheLookup(ok)
	if !ok {
		return "", false
	}
	rendered, err := template.Render(question)
	if err != nil {
		s.logger.WarnContext(ctx, "cached template render failed", slog.Any("error", err))
		return "", false
	}
	return rendered, true
}
