package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name   string
	Driver string
	// Schema is applied statement by statement on open; every statement is
	// idempotent.
	Schema []string
	// Pragmas run once after open, before the schema.
	Pragmas []string
	// LockClause is appended to lookups made inside a write transaction.
	LockClause string
	// Numbered reports whether placeholders are $1, $2, ... rather than ?.
	Numbered bool
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	Pragmas: []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	},
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			details TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	},
}

// Postgres is the dialect for the pgx database/sql driver.
var Postgres = Dialect{
	Name:   "postgres",
	Driver: "pgx",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			action TEXT NOT NULL,
			details TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	},
	LockClause: " FOR UPDATE",
	Numbered:   true,
}

// Rebind rewrites ? placeholders for dialects that number them. Queries in
// this package never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
