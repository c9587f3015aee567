package allowlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRegistryRejectsMalformedDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		tables []Table
	}{
		{"empty table set", nil},
		{"table without columns", []Table{{Name: "error_logs"}}},
		{"blank table name", []Table{{Name: "  ", Columns: []string{"a"}}}},
		{"duplicate table", []Table{
			{Name: "error_logs", Columns: []string{"a"}},
			{Name: "error_logs", Columns: []string{"b"}},
		}},
		{"alias shadows table", []Table{
			{Name: "error_logs", Columns: []string{"a"}},
			{Name: "sessions", Columns: []string{"b"}, Aliases: []string{"error_logs"}},
		}},
		{"alias maps to two tables", []Table{
			{Name: "error_logs", Columns: []string{"a"}, Aliases: []string{"events"}},
			{Name: "sessions", Columns: []string{"b"}, Aliases: []string{"events"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.tables); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestResolve(t *testing.T) {
	reg := Default()

	tests := []struct {
		identifier string
		want       string
		ok         bool
	}{
		{"error_logs", "error_logs", true},
		{"ERROR_LOGS", "error_logs", true},
		{"errors", "error_logs", true},
		{"connections", "connectivity_logs", true},
		{" connectivity ", "connectivity_logs", true},
		{"sessions", "sessions", true},
		{"users", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := reg.Resolve(tt.identifier)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.identifier, got, ok, tt.want, tt.ok)
		}
	}
}

func TestColumnAllowed(t *testing.T) {
	reg := Default()

	if !reg.ColumnAllowed("connections", "disconnection_cnt") {
		t.Error("disconnection_cnt should be allowed via alias")
	}
	if !reg.ColumnAllowed("error_logs", "MESSAGE") {
		t.Error("column match should be case-insensitive")
	}
	if reg.ColumnAllowed("error_logs", "password") {
		t.Error("unknown column should not be allowed")
	}
	if reg.ColumnAllowed("users", "id") {
		t.Error("unknown table should not be allowed")
	}
}

func TestSchemaPromptListsEveryTable(t *testing.T) {
	reg := Default()
	prompt := reg.SchemaPrompt()
	for _, table := range reg.Tables() {
		if !strings.Contains(prompt, "### "+table) {
			t.Errorf("schema prompt missing table %q", table)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.json")
	raw, err := json.Marshal([]Table{
		{Name: "orders", Columns: []string{"id", "total"}, Aliases: []string{"sales"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got, ok := reg.Resolve("sales"); !ok || got != "orders" {
		t.Fatalf("Resolve(sales) = (%q, %v)", got, ok)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
