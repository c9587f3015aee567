// Package allowlist holds the closed set of warehouse tables, columns, and
// aliases that generated SQL is permitted to reference. The registry is
// immutable after construction; a malformed definition is a startup error.
package allowlist

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

type Table struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []string `json:"columns"`
	Aliases     []string `json:"aliases,omitempty"`
}

type Registry struct {
	tables  map[string]Table
	aliases map[string]string
	names   []string
}

func NewRegistry(tables []Table) (*Registry, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("allowlist requires at least one table")
	}

	reg := &Registry{
		tables:  make(map[string]Table, len(tables)),
		aliases: make(map[string]string),
	}
	for _, table := range tables {
		name := strings.ToLower(strings.TrimSpace(table.Name))
		if name == "" {
			return nil, fmt.Errorf("allowlist table name is required")
		}
		if _, exists := reg.tables[name]; exists {
			return nil, fmt.Errorf("duplicate allowlist table %q", name)
		}
		if len(table.Columns) == 0 {
			return nil, fmt.Errorf("allowlist table %q has no columns", name)
		}
		columns := make([]string, 0, len(table.Columns))
		for _, column := range table.Columns {
			columns = append(columns, strings.ToLower(strings.TrimSpace(column)))
		}
		reg.tables[name] = Table{
			Name:        name,
			Description: table.Description,
			Columns:     columns,
			Aliases:     table.Aliases,
		}
		reg.names = append(reg.names, name)
	}

	for _, table := range tables {
		canonical := strings.ToLower(strings.TrimSpace(table.Name))
		for _, alias := range table.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				return nil, fmt.Errorf("empty alias on table %q", canonical)
			}
			if _, exists := reg.tables[key]; exists {
				return nil, fmt.Errorf("alias %q shadows an allowlisted table", key)
			}
			if existing, exists := reg.aliases[key]; exists && existing != canonical {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", key, existing, canonical)
			}
			reg.aliases[key] = canonical
		}
	}

	sort.Strings(reg.names)
	return reg, nil
}

// LoadFile builds a registry from a JSON file of table definitions. The file
// is read once at startup; the registry never touches the filesystem again.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allowlist file: %w", err)
	}
	var tables []Table
	if err := json.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("parse allowlist file %q: %w", path, err)
	}
	return NewRegistry(tables)
}

// Resolve maps a table identifier or alias to its canonical table name.
func (r *Registry) Resolve(identifier string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if key == "" {
		return "", false
	}
	if _, ok := r.tables[key]; ok {
		return key, true
	}
	if canonical, ok := r.aliases[key]; ok {
		return canonical, true
	}
	return "", false
}

func (r *Registry) ColumnAllowed(table, column string) bool {
	canonical, ok := r.Resolve(table)
	if !ok {
		return false
	}
	want := strings.ToLower(strings.TrimSpace(column))
	for _, candidate := range r.tables[canonical].Columns {
		if candidate == want {
			return true
		}
	}
	return false
}

// Tables returns the canonical table names in sorted order.
func (r *Registry) Tables() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Columns(table string) []string {
	canonical, ok := r.Resolve(table)
	if !ok {
		return nil
	}
	columns := r.tables[canonical].Columns
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// SchemaPrompt renders the registry as schema context for SQL generation.
func (r *Registry) SchemaPrompt() string {
	var b strings.Builder
	b.WriteString("Available tables and columns:\n")
	for _, name := range r.names {
		table := r.tables[name]
		b.WriteString("\n### " + name + "\n")
		if table.Description != "" {
			b.WriteString("Description: " + table.Description + "\n")
		}
		b.WriteString("Columns: " + strings.Join(table.Columns, ", ") + "\n")
		if len(table.Aliases) > 0 {
			b.WriteString("Also known as: " + strings.Join(table.Aliases, ", ") + "\n")
		}
	}
	return b.String()
}
