package store

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// StatementClass tags a schema statement for the bootstrap failure policy.
type StatementClass int

const (
	// ClassStructural covers CREATE, ALTER and DROP.
	ClassStructural StatementClass = iota
	// ClassSeed covers INSERT.
	ClassSeed
)

func (c StatementClass) String() string {
	if c == ClassSeed {
		return "seed"
	}
	return "structural"
}

// SchemaStatement is one executable unit extracted from the schema text.
type SchemaStatement struct {
	SQL   string
	Class StatementClass
}

// BootstrapReport summarizes one bootstrap run. Skipped counts statements
// that failed softly (object already present, duplicate seed row).
type BootstrapReport struct {
	Total    int
	Executed int
	Skipped  int
}

// Fragments shorter than this after trimming are splitter noise, not
// statements.
const minStatementLen = 5

// bootstrap executes the schema text statement by statement, in source
// order. Caller holds s.mu; the connection is open but the store is not yet
// ready, so the raw connection is used directly.
//
// Failure policy: a seed statement failing on a constraint, or a CREATE
// whose target object already exists, is skipped with a warning. Any other
// failure aborts bootstrap. Seed failures that are not constraint
// violations (wrong column count, type errors) are treated as broken schema
// text, not as harmless reruns, and abort as well.
func (s *Store) bootstrap(ctx context.Context, schema string) (BootstrapReport, error) {
	stmts := ParseSchema(schema)
	report := BootstrapReport{Total: len(stmts)}

	for i, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt.SQL); err != nil {
			if s.softFailure(ctx, stmt, err) {
				report.Skipped++
				log.Warn().
					Err(err).
					Int("statement", i+1).
					Str("class", stmt.Class.String()).
					Msg("Skipping schema statement")
				continue
			}
			return report, &BootstrapError{Index: i, Statement: stmt.SQL, Err: err}
		}
		report.Executed++
	}
	return report, nil
}

// softFailure decides whether a failed statement is recoverable, keyed on
// the statement class and the typed driver error, never on error text.
func (s *Store) softFailure(ctx context.Context, stmt SchemaStatement, err error) bool {
	switch stmt.Class {
	case ClassSeed:
		// Re-running seed rows against an existing store trips UNIQUE or
		// PRIMARY KEY constraints; that is the expected rerun case.
		return isConstraintViolation(err)
	case ClassStructural:
		// A failed CREATE is recoverable exactly when its object is
		// already present from an earlier run.
		name := createdObjectName(stmt.SQL)
		if name == "" {
			return false
		}
		return s.objectExists(ctx, name)
	}
	return false
}

// objectExists checks sqlite_master for a named structural object.
func (s *Store) objectExists(ctx context.Context, name string) bool {
	var n int
	row := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = ?", name)
	if err := row.Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// ParseSchema splits a schema-definition text into ordered, classified
// statements. Line and block comments are stripped, line endings
// normalized, and fragments below the minimal meaningful length discarded.
// A semicolon inside a quoted literal does not terminate a statement.
func ParseSchema(text string) []SchemaStatement {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var stmts []SchemaStatement
	var cur strings.Builder

	flush := func() {
		frag := strings.TrimSpace(cur.String())
		cur.Reset()
		if len(frag) < minStatementLen {
			return
		}
		stmts = append(stmts, SchemaStatement{SQL: frag, Class: classify(frag)})
	}

	const (
		stateNormal = iota
		stateLineComment
		stateBlockComment
		stateString
	)
	state := stateNormal

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch state {
		case stateNormal:
			switch {
			case c == '-' && i+1 < len(text) && text[i+1] == '-':
				state = stateLineComment
				i++
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stateBlockComment
				i++
			case c == '\'':
				state = stateString
				cur.WriteByte(c)
			case c == ';':
				flush()
			default:
				cur.WriteByte(c)
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				cur.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				state = stateNormal
				i++
			}
		case stateString:
			cur.WriteByte(c)
			if c == '\'' {
				// '' is an escaped quote, stay inside the literal.
				if i+1 < len(text) && text[i+1] == '\'' {
					cur.WriteByte(text[i+1])
					i++
				} else {
					state = stateNormal
				}
			}
		}
	}
	flush()
	return stmts
}

// classify tags a statement by its leading keyword.
func classify(stmt string) StatementClass {
	switch leadingKeyword(stmt) {
	case "INSERT":
		return ClassSeed
	default:
		return ClassStructural
	}
}

func leadingKeyword(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// createdObjectName extracts the object name from a CREATE statement, or ""
// when the statement is not a CREATE.
func createdObjectName(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) < 3 || strings.ToUpper(fields[0]) != "CREATE" {
		return ""
	}

	i := 1
	// Skip modifiers: UNIQUE INDEX, TEMP TABLE, etc.
	for i < len(fields) {
		switch strings.ToUpper(fields[i]) {
		case "UNIQUE", "TEMP", "TEMPORARY":
			i++
			continue
		}
		break
	}
	// Skip the object type keyword.
	i++
	// Skip IF NOT EXISTS.
	if i+2 < len(fields) &&
		strings.ToUpper(fields[i]) == "IF" &&
		strings.ToUpper(fields[i+1]) == "NOT" &&
		strings.ToUpper(fields[i+2]) == "EXISTS" {
		i += 3
	}
	if i >= len(fields) {
		return ""
	}

	name := fields[i]
	// The name may run straight into a column list.
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		name = name[:idx]
	}
	return strings.Trim(name, "`\"'[]")
}
