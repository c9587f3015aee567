// Package nl2sql turns natural-language questions into candidate SQL. Output
// from any Translator is untrusted and must pass the guard before execution.
package nl2sql

import "context"

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, question string) (Result, error)
}

// Summarizer produces a short natural-language answer from query results.
type Summarizer interface {
	Summarize(ctx context.Context, question string, columns []string, rows [][]any) (string, error)
}
