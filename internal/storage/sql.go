package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// Name identifies the dialect in config ("mysql" or "postgres").
	Name        string
	recordsDDL  string
	metaDDL     string
	upsertMeta  string
	numberedArg bool
}

// MySQL is the dialect for github.com/go-sql-driver/mysql.
var MySQL = Dialect{
	Driver: "mysql",
	Name:   "mysql",
	recordsDDL: `
CREATE TABLE IF NOT EXISTS scrape_records (
  position INT NOT NULL PRIMARY KEY,
  location TEXT NOT NULL,
  title TEXT NOT NULL,
  rating TEXT NOT NULL,
  review_count TEXT NOT NULL,
  phone TEXT NOT NULL,
  website TEXT NOT NULL,
  address TEXT NOT NULL,
  categories TEXT NOT NULL,
  hours TEXT NOT NULL,
  price_level TEXT NOT NULL,
  email TEXT NOT NULL,
  facebook TEXT NOT NULL,
  instagram TEXT NOT NULL,
  twitter TEXT NOT NULL,
  linkedin TEXT NOT NULL,
  href TEXT NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,
	metaDDL: `
CREATE TABLE IF NOT EXISTS scrape_snapshot (
  id TINYINT NOT NULL PRIMARY KEY,
  search_term TEXT NOT NULL,
  locations TEXT NOT NULL,
  max_results TEXT NOT NULL,
  last_update DATETIME(3) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,
	upsertMeta: `
INSERT INTO scrape_snapshot (id, search_term, locations, max_results, last_update)
VALUES (1, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  search_term=VALUES(search_term),
  locations=VALUES(locations),
  max_results=VALUES(max_results),
  last_update=VALUES(last_update);`,
}

// Postgres is the dialect for github.com/jackc/pgx/v5/stdlib.
var Postgres = Dialect{
	Driver: "pgx",
	Name:   "postgres",
	recordsDDL: `
CREATE TABLE IF NOT EXISTS scrape_records (
  position INT NOT NULL PRIMARY KEY,
  location TEXT NOT NULL,
  title TEXT NOT NULL,
  rating TEXT NOT NULL,
  review_count TEXT NOT NULL,
  phone TEXT NOT NULL,
  website TEXT NOT NULL,
  address TEXT NOT NULL,
  categories TEXT NOT NULL,
  hours TEXT NOT NULL,
  price_level TEXT NOT NULL,
  email TEXT NOT NULL,
  facebook TEXT NOT NULL,
  instagram TEXT NOT NULL,
  twitter TEXT NOT NULL,
  linkedin TEXT NOT NULL,
  href TEXT NOT NULL
);`,
	metaDDL: `
CREATE TABLE IF NOT EXISTS scrape_snapshot (
  id SMALLINT NOT NULL PRIMARY KEY,
  search_term TEXT NOT NULL,
  locations TEXT NOT NULL,
  max_results TEXT NOT NULL,
  last_update TIMESTAMPTZ NOT NULL
);`,
	upsertMeta: `
INSERT INTO scrape_snapshot (id, search_term, locations, max_results, last_update)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE
SET
  search_term = EXCLUDED.search_term,
  locations = EXCLUDED.locations,
  max_results = EXCLUDED.max_results,
  last_update = EXCLUDED.last_update;`,
	numberedArg: true,
}

// DialectFor resolves a configured driver name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.numberedArg {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const insertRecord = `
INSERT INTO scrape_records (
  position, location, title, rating, review_count, phone, website, address,
  categories, hours, price_level, email, facebook, instagram, twitter, linkedin, href
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectRecords = `
SELECT location, title, rating, review_count, phone, website, address,
  categories, hours, price_level, email, facebook, instagram, twitter, linkedin, href
FROM scrape_records
ORDER BY position ASC`

const selectMeta = `
SELECT search_term, locations, max_results, last_update
FROM scrape_snapshot
WHERE id = 1`

// SQLStore keeps the snapshot in two tables: one row per record plus a
// single meta row. Each save replaces the previous snapshot in one
// transaction (last write wins).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLStore connects, pings and ensures the schema.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", dialect.Name, err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	store := NewSQLStore(db, dialect)
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an existing pool. The schema is assumed to exist.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	for _, ddl := range []string{s.dialect.recordsDDL, s.dialect.metaDDL} {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Load reads the snapshot. An empty database yields an empty snapshot.
func (s *SQLStore) Load(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Records: []models.Record{}}

	err := s.db.QueryRowContext(ctx, selectMeta).Scan(
		&snap.SearchTerm, &snap.Locations, &snap.MaxResults, &snap.LastUpdate,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, fmt.Errorf("load snapshot meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, selectRecords)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Record
		if err := rows.Scan(
			&r.Location, &r.Title, &r.Rating, &r.ReviewCount, &r.Phone, &r.Website, &r.Address,
			&r.Categories, &r.Hours, &r.PriceLevel, &r.Email,
			&r.SocialLinks.Facebook, &r.SocialLinks.Instagram, &r.SocialLinks.Twitter, &r.SocialLinks.LinkedIn,
			&r.Href,
		); err != nil {
			return models.Snapshot{}, fmt.Errorf("scan record: %w", err)
		}
		snap.Records = append(snap.Records, r)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, fmt.Errorf("load records: %w", err)
	}
	return snap, nil
}

// Save replaces the stored snapshot.
func (s *SQLStore) Save(ctx context.Context, snap models.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scrape_records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(insertRecord))
	if err != nil {
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range snap.Records {
		if _, err = stmt.ExecContext(ctx,
			i, r.Location, r.Title, r.Rating, r.ReviewCount, r.Phone, r.Website, r.Address,
			r.Categories, r.Hours, r.PriceLevel, r.Email,
			r.SocialLinks.Facebook, r.SocialLinks.Instagram, r.SocialLinks.Twitter, r.SocialLinks.LinkedIn,
			r.Href,
		); err != nil {
			return fmt.Errorf("insert record %d %q: %w", i, r.Title, err)
		}
	}

	if _, err = tx.ExecContext(ctx, s.dialect.Rebind(s.dialect.upsertMeta),
		snap.SearchTerm, snap.Locations, snap.MaxResults, snap.LastUpdate,
	); err != nil {
		return fmt.Errorf("upsert snapshot meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
