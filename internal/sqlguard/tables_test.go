package sqlguard

import (
	"reflect"
	"testing"
)

func TestExtractTables(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{"single table", "SELECT * FROM sessions", []string{"sessions"}},
		{"trailing semicolon", "SELECT * FROM sessions;", []string{"sessions"}},
		{"aliased table", "SELECT s.bay_id FROM sessions s", []string{"sessions"}},
		{"aliased with AS", "SELECT s.bay_id FROM sessions AS s", []string{"sessions"}},
		{"schema qualified", "SELECT * FROM analytics.sessions", []string{"sessions"}},
		{
			"multiple joins",
			"SELECT * FROM error_logs e JOIN connectivity_logs c ON e.facility_id = c.facility_id LEFT JOIN facility_metadata f ON f.facility_id = e.facility_id",
			[]string{"error_logs", "connectivity_logs", "facility_metadata"},
		},
		{
			"subquery in from",
			"SELECT * FROM (SELECT facility_id FROM error_logs) sub JOIN sessions ON sub.facility_id = sessions.facility_id",
			[]string{"error_logs", "sessions"},
		},
		{"duplicate references deduped", "SELECT * FROM sessions a JOIN sessions b ON a.bay_id = b.bay_id", []string{"sessions"}},
		{
			"unparseable dialect falls back to regex",
			"SELECT facility_name FROM connections WHERE date >= CURRENT_DATE - INTERVAL '7 days'",
			[]string{"connections"},
		},
		{"double quoted identifier", `SELECT * FROM "users"`, []string{"users"}},
		{"backtick quoted identifier", "SELECT * FROM `users`", []string{"users"}},
		{"quoted join table", `SELECT * FROM sessions JOIN "accounts" ON 1=1`, []string{"sessions", "accounts"}},
		{"no from clause", "SELECT 1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTables(tt.sql)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractTables(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestRegexTablesCaseAndOrder(t *testing.T) {
	got := regexTables("SELECT * FROM Error_Logs JOIN analytics.Sessions ON 1=1")
	want := []string{"error_logs", "sessions"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("regexTables() = %v, want %v", got, want)
	}
}
