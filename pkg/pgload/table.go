package pgload

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// TableName identifies the target table. Schema is empty when the name was
// not qualified, in which case the connection's current schema applies.
type TableName struct {
	Schema string
	Name   string
}

// ParseTableName parses "table", "schema.table" and their double-quoted forms.
// Unquoted parts are folded to lower case the way PostgreSQL folds them;
// quoted parts keep their case and may contain dots or doubled quotes.
func ParseTableName(s string) (TableName, error) {
	parts, err := splitIdentifier(strings.TrimSpace(s))
	if err != nil {
		return TableName{}, fmt.Errorf("table name %q: %v: %w", s, err, ErrInvalidConfig)
	}

	switch len(parts) {
	case 1:
		return TableName{Name: parts[0]}, nil
	case 2:
		return TableName{Schema: parts[0], Name: parts[1]}, nil
	default:
		return TableName{}, fmt.Errorf("table name %q: expected [schema.]table: %w", s, ErrInvalidConfig)
	}
}

func splitIdentifier(s string) ([]string, error) {
	if s == "" {
		return nil, fmt.Errorf("empty")
	}

	var parts []string
	var cur strings.Builder
	quoted, wasQuoted := false, false

	flush := func() error {
		part := cur.String()
		if !wasQuoted {
			part = strings.ToLower(strings.TrimSpace(part))
		}
		if part == "" {
			return fmt.Errorf("empty identifier part")
		}
		parts = append(parts, part)
		cur.Reset()
		wasQuoted = false
		return nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '"' && i+1 < len(s) && s[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			if !quoted && cur.Len() > 0 {
				return nil, fmt.Errorf("unexpected quote at offset %d", i)
			}
			quoted = !quoted
			wasQuoted = true
		case c == '.' && !quoted:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			if wasQuoted && !quoted {
				return nil, fmt.Errorf("unexpected character after quoted identifier at offset %d", i)
			}
			cur.WriteByte(c)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quoted identifier")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return parts, nil
}

// Identifier returns the name as a pgx identifier.
func (t TableName) Identifier() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// Sanitize returns the quoted form, safe to embed in SQL text.
func (t TableName) Sanitize() string {
	return t.Identifier().Sanitize()
}

func (t TableName) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnSet is the authoritative, unordered set of column names of the
// target table. The zero value is an empty set.
type ColumnSet struct {
	names map[string]struct{}
}

// NewColumnSet builds a set from catalog column names. Names are compared
// exactly; no case folding is applied.
func NewColumnSet(names ...string) ColumnSet {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return ColumnSet{names: m}
}

// Contains reports whether name is a column of the table.
func (s ColumnSet) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of columns.
func (s ColumnSet) Len() int { return len(s.names) }

// Names returns the column names sorted lexicographically.
func (s ColumnSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
