package sqlguard

import (
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Matches bare, double-quoted, and backtick-quoted identifiers after FROM and
// JOIN. Postgres and DuckDB accept double-quoted table names, so a quoted
// reference must resolve to the same allowlist decision as the bare one.
var fromJoinPattern = regexp.MustCompile("(?i)\\b(?:FROM|JOIN)\\s+(?:\"([^\"]+)\"|`([^`]+)`|([A-Za-z_][A-Za-z0-9_.]*))")

// ExtractTables returns every table identifier referenced in FROM and JOIN
// clauses, schema qualification stripped, in first-seen order. It parses the
// statement with a real SQL parser and walks the AST; statements the parser
// cannot handle (dialect-specific syntax such as INTERVAL literals) fall back
// to a regex scan over FROM/JOIN. Both paths feed the same allowlist
// decision, so the accept/reject contract is identical.
func ExtractTables(sqlText string) []string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(sqlText), ";")

	stmt, err := sqlparser.Parse(trimmed)
	if err != nil {
		return regexTables(trimmed)
	}
	selectStmt, ok := stmt.(sqlparser.SelectStatement)
	if !ok {
		return regexTables(trimmed)
	}

	collector := &tableCollector{seen: map[string]bool{}}
	collector.selectStatement(selectStmt)
	return collector.tables
}

type tableCollector struct {
	tables []string
	seen   map[string]bool
}

func (c *tableCollector) add(name string) {
	key := strings.ToLower(name)
	// The parser normalizes FROM-less selects to "FROM dual".
	if key == "" || key == "dual" || c.seen[key] {
		return
	}
	c.seen[key] = true
	c.tables = append(c.tables, key)
}

func (c *tableCollector) selectStatement(stmt sqlparser.SelectStatement) {
	switch node := stmt.(type) {
	case *sqlparser.Select:
		c.tableExprs(node.From)
	case *sqlparser.Union:
		c.selectStatement(node.Left)
		c.selectStatement(node.Right)
	case *sqlparser.ParenSelect:
		c.selectStatement(node.Select)
	}
}

func (c *tableCollector) tableExprs(exprs sqlparser.TableExprs) {
	for _, expr := range exprs {
		c.tableExpr(expr)
	}
}

func (c *tableCollector) tableExpr(expr sqlparser.TableExpr) {
	switch node := expr.(type) {
	case *sqlparser.AliasedTableExpr:
		switch inner := node.Expr.(type) {
		case sqlparser.TableName:
			c.add(inner.Name.String())
		case *sqlparser.Subquery:
			c.selectStatement(inner.Select)
		}
	case *sqlparser.JoinTableExpr:
		c.tableExpr(node.LeftExpr)
		c.tableExpr(node.RightExpr)
	case *sqlparser.ParenTableExpr:
		c.tableExprs(node.Exprs)
	}
}

func regexTables(sqlText string) []string {
	collector := &tableCollector{seen: map[string]bool{}}
	for _, match := range fromJoinPattern.FindAllStringSubmatch(sqlText, -1) {
		identifier := match[3]
		if identifier != "" {
			if dot := strings.LastIndex(identifier, "."); dot >= 0 {
				identifier = identifier[dot+1:]
			}
		} else if match[1] != "" {
			identifier = match[1]
		} else {
			identifier = match[2]
		}
		collector.add(identifier)
	}
	return collector.tables
}
