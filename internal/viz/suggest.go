// Package viz inspects query results and suggests a chart configuration for
// the caller's UI. A nil suggestion means the data is best shown as a table.
package viz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	ChartBar  = "bar"
	ChartLine = "line"
	ChartPie  = "pie"
	ChartArea = "area"
)

const maxSeries = 3

type Suggestion struct {
	Type     string   `json:"type"`
	XKey     string   `json:"x_key,omitempty"`
	YKeys    []string `json:"y_keys,omitempty"`
	NameKey  string   `json:"name_key,omitempty"`
	ValueKey string   `json:"value_key,omitempty"`
	Title    string   `json:"title"`
}

type columnKind int

const (
	kindText columnKind = iota
	kindNumeric
	kindTemporal
	kindCategorical
)

var (
	temporalNameHints = []string{"date", "time", "day", "month", "year", "week", "hour", "created", "updated", "timestamp"}
	datePatterns      = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),
		regexp.MustCompile(`^\d{4}/\d{2}/\d{2}`),
	}
	trendWords        = []string{"trend", "over time", "history", "daily", "weekly", "monthly", "timeline"}
	distributionWords = []string{"distribution", "breakdown", "proportion", "percentage", "share"}
	titleStopWords    = map[string]bool{
		"show": true, "me": true, "give": true, "get": true, "what": true,
		"is": true, "are": true, "the": true, "a": true, "an": true,
		"please": true, "can": true, "you": true,
	}
)

// Suggest returns a chart configuration for the result set, or nil when a
// plain table is the better fit. Fewer than two rows never gets a chart.
func Suggest(columns []string, rows [][]any, question string) *Suggestion {
	if len(columns) == 0 || len(rows) < 2 {
		return nil
	}

	kinds := classifyColumns(columns, rows)
	var numeric, categorical, temporal []string
	for i, column := range columns {
		switch kinds[i] {
		case kindNumeric:
			numeric = append(numeric, column)
		case kindCategorical:
			categorical = append(categorical, column)
		case kindTemporal:
			temporal = append(temporal, column)
		}
	}

	lowerQuestion := strings.ToLower(question)

	if containsAny(lowerQuestion, trendWords) && len(temporal) > 0 && len(numeric) > 0 {
		return &Suggestion{
			Type:  ChartLine,
			XKey:  temporal[0],
			YKeys: capSeries(numeric),
			Title: chartTitle(question, "Trend"),
		}
	}

	if containsAny(lowerQuestion, distributionWords) && len(numeric) == 1 && len(categorical) > 0 && len(rows) <= 8 {
		return &Suggestion{
			Type:     ChartPie,
			NameKey:  categorical[0],
			ValueKey: numeric[0],
			Title:    chartTitle(question, "Distribution"),
		}
	}

	if len(categorical) > 0 && len(numeric) > 0 {
		return &Suggestion{
			Type:  ChartBar,
			XKey:  categorical[0],
			YKeys: capSeries(numeric),
			Title: chartTitle(question, "Comparison"),
		}
	}

	if len(temporal) > 0 && len(numeric) > 0 {
		return &Suggestion{
			Type:  ChartArea,
			XKey:  temporal[0],
			YKeys: capSeries(numeric),
			Title: chartTitle(question, "Over Time"),
		}
	}

	if len(columns) >= 2 && len(numeric) > 0 {
		for i, column := range columns {
			if kinds[i] != kindNumeric {
				return &Suggestion{
					Type:  ChartBar,
					XKey:  column,
					YKeys: capSeries(numeric),
					Title: chartTitle(question, "Data"),
				}
			}
		}
	}

	return nil
}

func classifyColumns(columns []string, rows [][]any) []columnKind {
	kinds := make([]columnKind, len(columns))
	for i, column := range columns {
		values := make([]any, 0, len(rows))
		for _, row := range rows {
			if i < len(row) && row[i] != nil {
				values = append(values, row[i])
			}
		}
		if len(values) == 0 {
			kinds[i] = kindText
			continue
		}

		numericCount := 0
		for _, value := range values {
			if isNumeric(value) {
				numericCount++
			}
		}
		if float64(numericCount) > float64(len(values))*0.8 {
			kinds[i] = kindNumeric
			continue
		}

		if isTemporal(column, values) {
			kinds[i] = kindTemporal
			continue
		}

		unique := map[string]bool{}
		for _, value := range values {
			unique[stringify(value)] = true
		}
		limit := len(values) / 2
		if limit > 15 {
			limit = 15
		}
		if len(unique) <= limit {
			kinds[i] = kindCategorical
		} else {
			kinds[i] = kindText
		}
	}
	return kinds
}

func isNumeric(value any) bool {
	switch typed := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		cleaned := strings.ReplaceAll(strings.ReplaceAll(typed, ",", ""), "%", "")
		_, err := strconv.ParseFloat(cleaned, 64)
		return err == nil
	default:
		return false
	}
}

func isTemporal(column string, values []any) bool {
	lower := strings.ToLower(column)
	for _, hint := range temporalNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	sample := values
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for _, value := range sample {
		switch typed := value.(type) {
		case time.Time:
			return true
		case string:
			for _, pattern := range datePatterns {
				if pattern.MatchString(typed) {
					return true
				}
			}
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func capSeries(columns []string) []string {
	if len(columns) > maxSeries {
		return columns[:maxSeries]
	}
	return columns
}

func chartTitle(question, fallback string) string {
	words := strings.Fields(strings.ToLower(question))
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if titleStopWords[word] {
			continue
		}
		kept = append(kept, word)
		if len(kept) == 6 {
			break
		}
	}
	title := titleCase(kept)
	if len(title) > 50 {
		title = title[:47] + "..."
	}
	if title == "" {
		return fallback + " View"
	}
	return title
}

func titleCase(words []string) string {
	cased := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		cased = append(cased, strings.ToUpper(word[:1])+word[1:])
	}
	return strings.Join(cased, " ")
}

func stringify(value any) string {
	if typed, ok := value.(string); ok {
		return typed
	}
	return fmt.Sprintf("%v", value)
}
