package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/angelmondragon/promoschemes/pkg/config"
	"github.com/angelmondragon/promoschemes/pkg/logger"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateFS(Embedded, embeddedDir); err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
}

func TestValidateFSRejectsBrokenSections(t *testing.T) {
	cases := map[string]string{
		"down before up": "-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x ();\n",
		"unterminated":   "-- +goose Up\n-- +goose StatementBegin\nCREATE TABLE x ();\n-- +goose Down\n",
		"stray end":      "-- +goose Up\nCREATE TABLE x ();\n-- +goose StatementEnd\n-- +goose Down\n",
		"missing down":   "-- +goose Up\nCREATE TABLE x ();\n",
	}
	for name, body := range cases {
		fsys := fstest.MapFS{
			"migrations/20260301090000_add_scheme_priority.sql": {Data: []byte(body)},
		}
		if err := ValidateFS(fsys, "migrations"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestValidateFSRejectsDuplicateVersions(t *testing.T) {
	body := []byte("-- +goose Up\n-- +goose Down\n")
	fsys := fstest.MapFS{
		"m/20260301090000_add_scheme_priority.sql":  {Data: body},
		"m/20260301090000_add_invoice_currency.sql": {Data: body},
	}
	if err := ValidateFS(fsys, "m"); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestCreateSQLMigrationKeepsVersionsIncreasing(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := createSQLMigration(dir, "add scheme priority", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := createSQLMigration(dir, "add invoice currency", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(first) != "20260301090000_add_scheme_priority.sql" {
		t.Fatalf("first = %s", filepath.Base(first))
	}
	if filepath.Base(second) != "20260301090001_add_invoice_currency.sql" {
		t.Fatalf("second = %s", filepath.Base(second))
	}

	latest, err := LatestVersion(os.DirFS(dir), ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != 20260301090001 {
		t.Fatalf("LatestVersion = %d, want 20260301090001", latest)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmbeddedMatchesDirectory(t *testing.T) {
	embedded, err := fs.Glob(Embedded, "migrations/*.sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embedded) != len(onDisk) {
		t.Fatalf("len(embedded) = %d, want len(onDisk)", len(embedded))
	}
}

func TestSchemeMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_promotional_schemes.sql"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("matches is empty")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS promotional_schemes",
		"CONSTRAINT promotional_schemes_name_key UNIQUE (name)",
		"valid_from <= valid_to",
		"REFERENCES promotional_schemes(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS promotional_schemes",
	} {
		if !strings.Contains(content, sub) {
			t.Fatalf("content does not contain %q: %s", sub, content)
		}
	}
}

func TestInvoiceMigrationSupportsReportQuery(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_invoices.sql"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("matches is empty")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "ON invoices (kind, docstatus, posting_date)") {
		t.Fatalf("content does not contain %q: %s", "ON invoices (kind, docstatus, posting_date)", content)
	}
	if !strings.Contains(content, "net_amount numeric(18,6),") {
		t.Fatalf("content does not contain %q: %s", "net_amount numeric(18,6),", content)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Scheme Priority!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, "_add_scheme_priority.sql") {
		t.Fatalf("path = %q, want _add_scheme_priority.sql suffix", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = CreateSQLMigration(dir, "!!!")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ValidateDir(dir) == nil {
		t.Fatal("expected error")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260105093000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != int64(20260105093000) {
		t.Fatalf("v = %v, want %v", v, int64(20260105093000))
	}

	_, err = ParseVersion("2026")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: os.Stderr})
	if err := MaybeRunDev(context.Background(), cfg, logg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
