package allowlist

// DefaultTables mirrors the facility-operations warehouse schema the demo
// seeder creates. Production deployments load their own definitions via
// INSIGHTGATE_ALLOWLIST_PATH.
func DefaultTables() []Table {
	return []Table{
		{
			Name:        "error_logs",
			Description: "Device and service error events per facility",
			Columns: []string{
				"facility_id", "facility_name", "error_timestamp",
				"event_level", "message", "message_id", "device_id",
			},
			Aliases: []string{"errors"},
		},
		{
			Name:        "connectivity_logs",
			Description: "Daily connectivity events and disconnection counts per facility",
			Columns: []string{
				"facility_id", "facility_name", "log_date", "date",
				"disconnection_cnt", "model_status", "uptime_pct",
			},
			Aliases: []string{"connections", "connectivity"},
		},
		{
			Name:        "data_quality",
			Description: "Data quality scores, missing records, and ingest latency per facility",
			Columns: []string{
				"facility_id", "timestamp", "data_quality_score",
				"missing_records", "latency_ms",
			},
			Aliases: []string{"quality"},
		},
		{
			Name:        "facility_metadata",
			Description: "Static facility attributes",
			Columns: []string{
				"facility_id", "facility_name", "location",
				"opening_hours", "bay_count", "region",
			},
			Aliases: []string{"facilities"},
		},
		{
			Name:        "sessions",
			Description: "Practice session records per facility and bay",
			Columns: []string{
				"session_id", "facility_id", "bay_id", "started_at",
				"ended_at", "shot_count", "player_count",
			},
		},
	}
}

// Default returns the compiled-in registry. The definitions above are
// statically valid, so construction cannot fail.
func Default() *Registry {
	reg, err := NewRegistry(DefaultTables())
	if err != nil {
		panic("allowlist: default registry invalid: " + err.Error())
	}
	return reg
}
