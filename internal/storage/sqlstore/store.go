// Package sqlstore implements the relational storage variant on database/sql.
// Each Update runs in a single SQL transaction, so a product write and its
// activity entry commit or roll back together.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

const defaultSQLitePath = "inventory.db"

// Store is a relational storage.Backend.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open(SQLite.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY and
	// keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return New(ctx, db, SQLite)
}

// OpenPostgres connects to the PostgreSQL database at dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}
	db, err := sql.Open(Postgres.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(ctx, db, Postgres)
}

// New wraps an open database handle, verifies the connection and applies the
// dialect's pragmas and schema. The Store takes ownership of db.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	for _, stmt := range append(append([]string{}, d.Pragmas...), d.Schema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Name() string                 { return s.dialect.Name }
func (s *Store) Guarantee() storage.Guarantee { return storage.Atomic }
func (s *Store) Identity() storage.Identity   { return storage.ByID }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Update runs fn inside a transaction and commits only if fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{tx: tx, d: s.dialect, lock: s.dialect.LockClause}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// View runs fn inside a transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&sqlTx{tx: tx, d: s.dialect})
}

type sqlTx struct {
	tx   *sql.Tx
	d    Dialect
	lock string
}

func (t *sqlTx) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.d.Rebind(q), args...)
}

func (t *sqlTx) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.d.Rebind(q), args...)
}

func (t *sqlTx) GetProduct(ctx context.Context, key storage.Key) (model.Product, error) {
	var p model.Product
	row := t.tx.QueryRowContext(ctx, t.d.Rebind(`SELECT id, name, quantity FROM products WHERE id = ?`+t.lock), key.ID)
	if err := row.Scan(&p.ID, &p.Name, &p.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, storage.ErrNotFound
		}
		return model.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (t *sqlTx) FindProductByName(ctx context.Context, name string) (model.Product, bool, error) {
	var p model.Product
	row := t.tx.QueryRowContext(ctx, t.d.Rebind(`SELECT id, name, quantity FROM products WHERE name = ? ORDER BY id LIMIT 1`), name)
	if err := row.Scan(&p.ID, &p.Name, &p.Quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, false, nil
		}
		return model.Product{}, false, fmt.Errorf("select product by name: %w", err)
	}
	return p, true, nil
}

func (t *sqlTx) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := t.query(ctx, `SELECT id, name, quantity FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (t *sqlTx) PutProduct(ctx context.Context, key storage.Key, p model.Product) (model.Product, error) {
	if key == (storage.Key{}) {
		var id int64
		row := t.tx.QueryRowContext(ctx, t.d.Rebind(`INSERT INTO products(name, quantity) VALUES(?, ?) RETURNING id`), p.Name, p.Quantity)
		if err := row.Scan(&id); err != nil {
			return model.Product{}, fmt.Errorf("insert product: %w", err)
		}
		p.ID = id
		return p, nil
	}
	res, err := t.exec(ctx, `UPDATE products SET name = ?, quantity = ? WHERE id = ?`, p.Name, p.Quantity, key.ID)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return model.Product{}, err
	}
	p.ID = key.ID
	return p, nil
}

func (t *sqlTx) RemoveProduct(ctx context.Context, key storage.Key) error {
	res, err := t.exec(ctx, `DELETE FROM products WHERE id = ?`, key.ID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(res)
}

func (t *sqlTx) AppendActivity(ctx context.Context, a model.Activity) error {
	if _, err := t.exec(ctx, `INSERT INTO activities(action, details, created_at) VALUES(?, ?, ?)`,
		string(a.Action), a.Details, a.Timestamp.UTC().UnixNano()); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (t *sqlTx) ListActivities(ctx context.Context) ([]model.Activity, error) {
	rows, err := t.query(ctx, `SELECT id, action, details, created_at FROM activities ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("select activities: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []model.Activity{}
	for rows.Next() {
		var (
			a      model.Activity
			action string
			nanos  int64
		)
		if err := rows.Scan(&a.ID, &action, &a.Details, &nanos); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Action = model.Action(action)
		a.Timestamp = time.Unix(0, nanos).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
