// Package insightgatectl implements the command line client for the
// InsightGate API.
package insightgatectl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Tenant     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("insightgatectl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "InsightGate API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	tenant := fs.String("tenant", defaults.Tenant, "Tenant passed on ask requests when auth is disabled")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	rest := fs.Args()[1:]

	method := ""
	path := ""
	var payload any
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "cache-stats":
		method, path = http.MethodGet, "/v1/cache/stats"
	case "cache-clear":
		method, path = http.MethodDelete, "/v1/cache"
	case "audit-flush":
		method, path = http.MethodPost, "/v1/audit/flush"
	case "ask":
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		method, path = http.MethodPost, "/v1/ask"
		payload = map[string]string{"question": strings.Join(rest, " "), "tenant": *tenant}
	case "query":
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(stderr, "query requires a SQL statement")
			return 2
		}
		method, path = http.MethodPost, "/v1/query"
		payload = map[string]string{"sql": strings.Join(rest, " ")}
	case "validate":
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(stderr, "validate requires a SQL statement")
			return 2
		}
		method, path = http.MethodPost, "/v1/validate"
		payload = map[string]string{"sql": strings.Join(rest, " ")}
	case "analysis":
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(stderr, "analysis requires a type (facility_health, facility_comparison, trend, error_connectivity)")
			return 2
		}
		method, path = http.MethodPost, "/v1/analysis/run"
		payload = analysisPayload(rest)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, *apiKey, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

// analysisPayload turns "analysis <type> [facility...]" into the run request.
// A single facility becomes facility_id, several become facility_ids.
func analysisPayload(args []string) map[string]any {
	payload := map[string]any{"analysis_type": args[0]}
	params := map[string]any{}
	facilities := args[1:]
	switch len(facilities) {
	case 0:
	case 1:
		params["facility_id"] = facilities[0]
	default:
		params["facility_ids"] = facilities
	}
	if len(params) > 0 {
		payload["params"] = params
	}
	return payload
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: insightgatectl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                       GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                        GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  ask <question>               POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  query <sql>                  POST /v1/query")
	_, _ = fmt.Fprintln(w, "  validate <sql>               POST /v1/validate")
	_, _ = fmt.Fprintln(w, "  analysis <type> [facility]   POST /v1/analysis/run")
	_, _ = fmt.Fprintln(w, "  cache-stats                  GET /v1/cache/stats")
	_, _ = fmt.Fprintln(w, "  cache-clear                  DELETE /v1/cache")
	_, _ = fmt.Fprintln(w, "  audit-flush                  POST /v1/audit/flush")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
