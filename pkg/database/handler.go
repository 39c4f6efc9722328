// package database provides the digest with a wrapper around an sql
// database connection pool and the public methods to archive assembled
// reports in that database
package database

import (
	"context"
	"database/sql"
	"fmt"

	// the postgres driver for Go SQL, also used for array parameters
	"github.com/lib/pq"

	"github.com/open-sauced/docs-digest/pkg/report"
)

// ArchiveDbHandler is a wrapper around *sql.DB. It provides a single point
// where reports are written to the archive database connection pool.
type ArchiveDbHandler struct {
	db *sql.DB
}

// NewArchiveDbHandler builds an ArchiveDbHandler based on the provided
// database connection parameters
func NewArchiveDbHandler(host, port, user, pwd, dbName string) (*ArchiveDbHandler, error) {
	connectString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=require", host, port, user, pwd, dbName)

	// Acquire the *sql.DB instance
	dbPool, err := sql.Open("postgres", connectString)
	if err != nil {
		return nil, fmt.Errorf("could not open database connection: %w", err)
	}

	// ping once to ensure the database values and connection are valid and working
	err = dbPool.Ping()
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return NewArchiveDbHandlerFromDB(dbPool), nil
}

// NewArchiveDbHandlerFromDB wraps an already opened pool.
func NewArchiveDbHandlerFromDB(db *sql.DB) *ArchiveDbHandler {
	return &ArchiveDbHandler{db: db}
}

// Close closes the underlying connection pool.
func (p ArchiveDbHandler) Close() error {
	return p.db.Close()
}

// ArchiveRow is one report entry as stored in public.doc_updates.
type ArchiveRow struct {
	Month       string
	Product     string
	PageURL     string
	Description string
	Sections    []string
}

// Rows flattens a report into archive rows in report order.
func Rows(r report.Report) []ArchiveRow {
	rows := make([]ArchiveRow, 0, r.Len())
	for _, g := range r.Groups {
		for _, e := range g.Entries {
			sections := e.Sections
			if sections == nil {
				sections = []string{}
			}
			rows = append(rows, ArchiveRow{
				Month:       r.Month.Key(),
				Product:     e.Product,
				PageURL:     e.URL,
				Description: e.Description,
				Sections:    sections,
			})
		}
	}
	return rows
}

const createDocUpdates = `CREATE TABLE IF NOT EXISTS public.doc_updates(
	month text NOT NULL,
	product text NOT NULL,
	page_url text NOT NULL,
	description text NOT NULL,
	sections text[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (month, product, page_url)
)`

// EnsureSchema creates public.doc_updates when it does not exist yet.
func (p ArchiveDbHandler) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createDocUpdates); err != nil {
		return fmt.Errorf("could not create archive table: %w", err)
	}
	return nil
}

const upsertDocUpdate = `INSERT INTO public.doc_updates(month, product, page_url, description, sections)
VALUES($1, $2, $3, $4, $5)
ON CONFLICT (month, product, page_url)
DO UPDATE SET description = EXCLUDED.description, sections = EXCLUDED.sections`

// StoreReport upserts every entry of the report in a single transaction and
// returns the number of rows written. Rows of the month no longer in the
// report are left untouched.
func (p ArchiveDbHandler) StoreReport(ctx context.Context, r report.Report) (int, error) {
	rows := Rows(r)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin archive transaction: %w", err)
	}
	//nolint:errcheck
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertDocUpdate)
	if err != nil {
		return 0, fmt.Errorf("could not prepare archive statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx, row.Month, row.Product, row.PageURL, row.Description, pq.Array(row.Sections))
		if err != nil {
			return 0, fmt.Errorf("could not archive %s: %w", row.PageURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit archive transaction: %w", err)
	}

	return len(rows), nil
}

// CountMonth returns the number of archived entries of a "YYYY-MM" month,
// including entries stored by earlier runs.
func (p ArchiveDbHandler) CountMonth(ctx context.Context, month string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM public.doc_updates WHERE month=$1", month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("could not count archived entries of %s: %w", month, err)
	}
	return n, nil
}
