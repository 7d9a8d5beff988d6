package xentity

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder selects the positional parameter style of the target database.
//
//   - PlaceholderQuestion → "?"          (MySQL, SQLite)
//   - PlaceholderDollar   → "$1, $2, …"  (PostgreSQL: lib/pq, pgx)
//   - PlaceholderAtP      → "@p1, @p2…"  (SQL Server)
//   - PlaceholderColonNum → ":1, :2, …"  (Oracle)
type Placeholder int

const (
	PlaceholderQuestion Placeholder = iota
	PlaceholderDollar
	PlaceholderAtP
	PlaceholderColonNum
)

func (p Placeholder) String() string {
	switch p {
	case PlaceholderDollar:
		return "dollar"
	case PlaceholderAtP:
		return "atp"
	case PlaceholderColonNum:
		return "colon"
	default:
		return "question"
	}
}

// PlaceholderFor picks a Placeholder from a database/sql driver name.
//
//	xentity.PlaceholderFor("pgx")       // PlaceholderDollar
//	xentity.PlaceholderFor("sqlserver") // PlaceholderAtP
//	xentity.PlaceholderFor("mysql")     // PlaceholderQuestion
func PlaceholderFor(driverName string) Placeholder {
	switch strings.ToLower(driverName) {
	case "pgx", "postgres", "postgresql", "lib/pq", "pg":
		return PlaceholderDollar
	case "sqlserver", "mssql":
		return PlaceholderAtP
	case "godror", "oracle", "goracle":
		return PlaceholderColonNum
	default:
		return PlaceholderQuestion
	}
}

// ParsePlaceholder parses the names printed by Placeholder.String, as used in Config.
func ParsePlaceholder(name string) (Placeholder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "question", "?":
		return PlaceholderQuestion, nil
	case "dollar", "$":
		return PlaceholderDollar, nil
	case "atp", "@p":
		return PlaceholderAtP, nil
	case "colon", ":":
		return PlaceholderColonNum, nil
	}
	return 0, fmt.Errorf("xentity: unknown placeholder style %q", name)
}

// rewritePlaceholders replaces each bare '?' with the style's n-th marker.
// Quoted strings, quoted identifiers, comments and PostgreSQL dollar-quoted
// bodies are copied untouched.
func rewritePlaceholders(query string, ph Placeholder) string {
	if ph == PlaceholderQuestion {
		return query
	}
	out := make([]byte, 0, len(query)+16)
	arg := 1
	for i := 0; i < len(query); {
		if j := skipQuoted(query, i); j > i {
			out = append(out, query[i:j]...)
			i = j
			continue
		}
		if query[i] != '?' {
			_, w := utf8.DecodeRuneInString(query[i:])
			out = append(out, query[i:i+w]...)
			i += w
			continue
		}
		switch ph {
		case PlaceholderDollar:
			out = append(out, '$')
		case PlaceholderAtP:
			out = append(out, '@', 'p')
		case PlaceholderColonNum:
			out = append(out, ':')
		}
		out = strconv.AppendInt(out, int64(arg), 10)
		arg++
		i++
	}
	return string(out)
}

// skipQuoted returns the index just past the quoted region or comment that
// starts at i, or i when none starts there. Unterminated regions run to the
// end of the query.
func skipQuoted(s string, i int) int {
	switch c := s[i]; {
	case c == '\'' || c == '"' || c == '`':
		return skipDelimited(s, i+1, c)
	case strings.HasPrefix(s[i:], "--"):
		if k := strings.IndexByte(s[i:], '\n'); k >= 0 {
			return i + k + 1
		}
		return len(s)
	case strings.HasPrefix(s[i:], "/*"):
		if k := strings.Index(s[i+2:], "*/"); k >= 0 {
			return i + 2 + k + 2
		}
		return len(s)
	case c == '$':
		return skipDollarQuoted(s, i)
	}
	return i
}

// skipDelimited scans to the closing delimiter; a doubled delimiter is an escape.
func skipDelimited(s string, i int, delim byte) int {
	for i < len(s) {
		if s[i] == delim {
			if i+1 < len(s) && s[i+1] == delim {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

// skipDollarQuoted handles $$...$$ and $tag$...$tag$. "$1" style markers
// and lone dollars are not quotes.
func skipDollarQuoted(s string, i int) int {
	j := i + 1
	for j < len(s) && s[j] != '$' {
		r, w := utf8.DecodeRuneInString(s[j:])
		if !(r == '_' || unicode.IsLetter(r) || (j > i+1 && unicode.IsDigit(r))) {
			return i
		}
		j += w
	}
	if j >= len(s) {
		return i
	}
	tag := s[i : j+1]
	if k := strings.Index(s[j+1:], tag); k >= 0 {
		return j + 1 + k + len(tag)
	}
	return len(s)
}
