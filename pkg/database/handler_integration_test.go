package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/report"
)

func newIntegrationHandler(t *testing.T) *ArchiveDbHandler {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("could not open database: %s", err.Error())
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("could not ping database: %s", err.Error())
	}

	handler := NewArchiveDbHandlerFromDB(db)
	t.Cleanup(func() { handler.Close() })
	return handler
}

func TestStoreReportAndCountMonth(t *testing.T) {
	handler := newIntegrationHandler(t)
	ctx := context.Background()

	if err := handler.EnsureSchema(ctx); err != nil {
		t.Fatalf("unexpected err: %s", err.Error())
	}

	// a month no real digest covers, so the test never touches live rows
	month := common.Month{Year: 1999, Month: time.January}
	cleanup := func() {
		if _, err := handler.db.ExecContext(ctx, "DELETE FROM public.doc_updates WHERE month=$1", month.Key()); err != nil {
			t.Fatalf("could not clean up: %s", err.Error())
		}
	}
	cleanup()
	t.Cleanup(cleanup)

	r := report.Report{
		Month: month,
		Groups: []report.Group{
			{
				Product: "Cache",
				Entries: []report.Entry{
					{Product: "Cache", URL: "https://developers.cloudflare.com/cache/a/", Description: "Add a", Sections: []string{"Limits"}},
					{Product: "Cache", URL: "https://developers.cloudflare.com/cache/b/", Description: "Add b"},
				},
			},
		},
	}

	n, err := handler.StoreReport(ctx, r)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 stored rows, got %d, %v", n, err)
	}

	// storing the same month again updates rows in place
	r.Groups[0].Entries[0].Description = "Add a, revised"
	if _, err := handler.StoreReport(ctx, r); err != nil {
		t.Fatalf("unexpected err: %s", err.Error())
	}

	total, err := handler.CountMonth(ctx, month.Key())
	if err != nil || total != 2 {
		t.Fatalf("expected 2 archived rows, got %d, %v", total, err)
	}

	var description string
	err = handler.db.QueryRowContext(ctx,
		"SELECT description FROM public.doc_updates WHERE month=$1 AND page_url=$2",
		month.Key(), "https://developers.cloudflare.com/cache/a/",
	).Scan(&description)
	if err != nil || description != "Add a, revised" {
		t.Fatalf("expected the revised description, got %q, %v", description, err)
	}
}
