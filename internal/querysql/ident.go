package querysql

import "strings"

// keywords are reserved or clause-starting words in PostgreSQL or SQLite
// that cannot stand as a bare column or table name.
var keywords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"as": true, "asc": true, "between": true, "both": true, "by": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "cross": true, "current_date": true,
	"current_time": true, "current_timestamp": true, "current_user": true,
	"default": true, "deferrable": true, "delete": true, "desc": true,
	"distinct": true, "do": true, "drop": true, "else": true, "end": true,
	"escape": true, "except": true, "exists": true, "false": true,
	"fetch": true, "for": true, "foreign": true, "from": true, "full": true,
	"glob": true, "grant": true, "group": true, "having": true, "in": true,
	"index": true, "inner": true, "insert": true, "intersect": true,
	"into": true, "is": true, "isnull": true, "join": true, "key": true,
	"leading": true, "left": true, "like": true, "limit": true,
	"natural": true, "not": true, "notnull": true, "null": true,
	"offset": true, "on": true, "only": true, "or": true, "order": true,
	"outer": true, "primary": true, "references": true, "regexp": true,
	"returning": true, "right": true, "select": true, "set": true,
	"some": true, "table": true, "then": true, "to": true, "trailing": true,
	"true": true, "union": true, "unique": true, "update": true,
	"user": true, "using": true, "values": true, "when": true,
	"where": true, "window": true, "with": true,
}

// QuoteIdent renders a table or column name for SQL text.
//
// Plain lower-case names pass through unchanged. Anything else (a keyword
// such as order, upper case, spaces, punctuation, a leading digit) is
// wrapped in double quotes with embedded quotes doubled. Both dialects
// accept the quoted form.
func QuoteIdent(name string) string {
	if plainIdent(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func plainIdent(name string) bool {
	if name == "" || keywords[name] {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
