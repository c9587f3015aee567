// Package analysis runs fixed multi-query plans for composite business
// questions. Every plan's subqueries are statically defined here, never
// model-generated, so the query count per analysis type is known up front.
package analysis

import (
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeFacilityHealth     Type = "facility_health"
	TypeFacilityComparison Type = "facility_comparison"
	TypeTrend              Type = "trend"
	TypeErrorConnectivity  Type = "error_connectivity"
)

const (
	DefaultRangeDays      = 30
	MaxComparedFacilities = 5
)

type Params struct {
	FacilityID  string   `json:"facility_id,omitempty"`
	FacilityIDs []string `json:"facility_ids,omitempty"`
	RangeDays   int      `json:"range_days,omitempty"`
	Metric      string   `json:"metric,omitempty"`
}

type Step struct {
	Name string
	SQL  string
	Args []any
}

type Plan struct {
	Type     Type
	Question string
	Steps    []Step
}

const (
	errorsSummaryFacilitySQL = `SELECT facility_name, facility_id, COUNT(*) AS error_count,
 SUM(CASE WHEN UPPER(event_level) = 'ERROR' THEN 1 ELSE 0 END) AS critical_count,
 COUNT(DISTINCT message_id) AS unique_errors
 FROM error_logs
 WHERE error_timestamp >= $1 AND facility_id = $2
 GROUP BY facility_name, facility_id
 ORDER BY error_count DESC
 LIMIT 100`

	errorsSummaryFleetSQL = `SELECT facility_name, facility_id, COUNT(*) AS error_count,
 SUM(CASE WHEN UPPER(event_level) = 'ERROR' THEN 1 ELSE 0 END) AS critical_count,
 COUNT(DISTINCT message_id) AS unique_errors
 FROM error_logs
 WHERE error_timestamp >= $1
 GROUP BY facility_name, facility_id
 ORDER BY error_count DESC
 LIMIT 100`

	topErrorsFacilitySQL = `SELECT message, message_id, COUNT(*) AS occurrence_cnt
 FROM error_logs
 WHERE error_timestamp >= $1 AND facility_id = $2
 GROUP BY message, message_id
 ORDER BY occurrence_cnt DESC
 LIMIT 10`

	topErrorsFleetSQL = `SELECT message, message_id, COUNT(*) AS occurrence_cnt
 FROM error_logs
 WHERE error_timestamp >= $1
 GROUP BY message, message_id
 ORDER BY occurrence_cnt DESC
 LIMIT 10`

	connectivitySummaryFacilitySQL = `SELECT facility_name, facility_id, COUNT(*) AS total_events,
 SUM(disconnection_cnt) AS total_disconnections,
 ROUND(AVG(disconnection_cnt), 2) AS avg_disconnections
 FROM connectivity_logs
 WHERE log_date >= $1 AND facility_id = $2
 GROUP BY facility_name, facility_id
 ORDER BY total_disconnections DESC
 LIMIT 100`

	connectivitySummaryFleetSQL = `SELECT facility_name, facility_id, COUNT(*) AS total_events,
 SUM(disconnection_cnt) AS total_disconnections,
 ROUND(AVG(disconnection_cnt), 2) AS avg_disconnections
 FROM connectivity_logs
 WHERE log_date >= $1
 GROUP BY facility_name, facility_id
 ORDER BY total_disconnections DESC
 LIMIT 100`

	disconnectReasonsFacilitySQL = `SELECT model_status, COUNT(*) AS status_cnt
 FROM connectivity_logs
 WHERE log_date >= $1 AND facility_id = $2
 GROUP BY model_status
 ORDER BY status_cnt DESC
 LIMIT 100`

	disconnectReasonsFleetSQL = `SELECT model_status, COUNT(*) AS status_cnt
 FROM connectivity_logs
 WHERE log_date >= $1
 GROUP BY model_status
 ORDER BY status_cnt DESC
 LIMIT 100`

	dataQualityFacilitySQL = `SELECT facility_id, ROUND(AVG(data_quality_score), 2) AS avg_quality_score,
 SUM(missing_records) AS total_missing_records,
 ROUND(AVG(latency_ms), 2) AS avg_latency_ms
 FROM data_quality
 WHERE timestamp >= $1 AND facility_id = $2
 GROUP BY facility_id
 LIMIT 100`

	dataQualityFleetSQL = `SELECT facility_id, ROUND(AVG(data_quality_score), 2) AS avg_quality_score,
 SUM(missing_records) AS total_missing_records,
 ROUND(AVG(latency_ms), 2) AS avg_latency_ms
 FROM data_quality
 WHERE timestamp >= $1
 GROUP BY facility_id
 LIMIT 100`
)

func errorsSummaryStep(name string, cutoff time.Time, facilityID string) Step {
	if facilityID != "" {
		return Step{Name: name, SQL: errorsSummaryFacilitySQL, Args: []any{cutoff, facilityID}}
	}
	return Step{Name: name, SQL: errorsSummaryFleetSQL, Args: []any{cutoff}}
}

func topErrorsStep(name string, cutoff time.Time, facilityID string) Step {
	if facilityID != "" {
		return Step{Name: name, SQL: topErrorsFacilitySQL, Args: []any{cutoff, facilityID}}
	}
	return Step{Name: name, SQL: topErrorsFleetSQL, Args: []any{cutoff}}
}

func connectivitySummaryStep(name string, cutoff time.Time, facilityID string) Step {
	if facilityID != "" {
		return Step{Name: name, SQL: connectivitySummaryFacilitySQL, Args: []any{cutoff, facilityID}}
	}
	return Step{Name: name, SQL: connectivitySummaryFleetSQL, Args: []any{cutoff}}
}

func disconnectReasonsStep(name string, cutoff time.Time, facilityID string) Step {
	if facilityID != "" {
		return Step{Name: name, SQL: disconnectReasonsFacilitySQL, Args: []any{cutoff, facilityID}}
	}
	return Step{Name: name, SQL: disconnectReasonsFleetSQL, Args: []any{cutoff}}
}

func dataQualityStep(name string, cutoff time.Time, facilityID string) Step {
	if facilityID != "" {
		return Step{Name: name, SQL: dataQualityFacilitySQL, Args: []any{cutoff, facilityID}}
	}
	return Step{Name: name, SQL: dataQualityFleetSQL, Args: []any{cutoff}}
}

// BuildPlan assembles the fixed step list for an analysis type. now is the
// reference time for the lookback cutoff.
func BuildPlan(analysisType Type, params Params, now time.Time) (Plan, error) {
	rangeDays := params.RangeDays
	if rangeDays <= 0 {
		rangeDays = DefaultRangeDays
	}
	cutoff := now.UTC().AddDate(0, 0, -rangeDays)

	switch analysisType {
	case TypeFacilityHealth:
		if strings.TrimSpace(params.FacilityID) == "" {
			return Plan{}, fmt.Errorf("facility_id is required for %s", analysisType)
		}
		return Plan{
			Type:     analysisType,
			Question: fmt.Sprintf("Analyze the health of facility %s over the last %d days", params.FacilityID, rangeDays),
			Steps: []Step{
				errorsSummaryStep("error_summary", cutoff, params.FacilityID),
				topErrorsStep("top_errors", cutoff, params.FacilityID),
				connectivitySummaryStep("connectivity", cutoff, params.FacilityID),
				dataQualityStep("data_quality", cutoff, params.FacilityID),
			},
		}, nil

	case TypeFacilityComparison:
		facilities := make([]string, 0, MaxComparedFacilities)
		for _, id := range params.FacilityIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			facilities = append(facilities, id)
			if len(facilities) == MaxComparedFacilities {
				break
			}
		}
		if len(facilities) < 2 {
			return Plan{}, fmt.Errorf("at least two facility_ids are required for %s", analysisType)
		}
		plan := Plan{
			Type:     analysisType,
			Question: fmt.Sprintf("Compare facilities %s over the last %d days", strings.Join(facilities, ", "), rangeDays),
		}
		for _, id := range facilities {
			plan.Steps = append(plan.Steps,
				errorsSummaryStep(id+"_errors", cutoff, id),
				connectivitySummaryStep(id+"_connectivity", cutoff, id),
			)
		}
		return plan, nil

	case TypeTrend:
		extendedCutoff := now.UTC().AddDate(0, 0, -rangeDays*2)
		var current, extended Step
		switch params.Metric {
		case "errors":
			current = errorsSummaryStep("current_period", cutoff, params.FacilityID)
			extended = errorsSummaryStep("extended_period", extendedCutoff, params.FacilityID)
		case "connectivity":
			current = connectivitySummaryStep("current_period", cutoff, params.FacilityID)
			extended = connectivitySummaryStep("extended_period", extendedCutoff, params.FacilityID)
		case "quality", "":
			current = dataQualityStep("current_period", cutoff, params.FacilityID)
			extended = dataQualityStep("extended_period", extendedCutoff, params.FacilityID)
		default:
			return Plan{}, fmt.Errorf("unknown trend metric %q", params.Metric)
		}
		question := fmt.Sprintf("Analyze %s trends over %d days", metricLabel(params.Metric), rangeDays)
		if params.FacilityID != "" {
			question += " for facility " + params.FacilityID
		}
		return Plan{
			Type:     analysisType,
			Question: question,
			Steps:    []Step{current, extended},
		}, nil

	case TypeErrorConnectivity:
		question := "Analyze correlation between errors and connectivity issues"
		if params.FacilityID != "" {
			question += " for facility " + params.FacilityID
		}
		return Plan{
			Type:     analysisType,
			Question: question,
			Steps: []Step{
				errorsSummaryStep("errors", cutoff, params.FacilityID),
				topErrorsStep("top_errors", cutoff, params.FacilityID),
				connectivitySummaryStep("connectivity", cutoff, params.FacilityID),
				disconnectReasonsStep("disconnect_reasons", cutoff, params.FacilityID),
			},
		}, nil

	default:
		return Plan{}, fmt.Errorf("unknown analysis type %q", analysisType)
	}
}

func metricLabel(metric string) string {
	if metric == "" {
		return "quality"
	}
	return metric
}
