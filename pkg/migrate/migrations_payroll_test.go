package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dcastellanos/shiftpay-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestPayrollMigrationsContainConstraints(t *testing.T) {
	cases := []struct {
		pattern string
		checks  []string
	}{
		{
			pattern: "*_create_payroll_submissions.sql",
			checks: []string{
				"CREATE TABLE payroll_submissions",
				"REFERENCES locations (id)",
				"pay_date         DATE NOT NULL",
				"DROP TABLE payroll_submissions",
			},
		},
		{
			pattern: "*_create_payroll_entries.sql",
			checks: []string{
				"CREATE TABLE payroll_entries",
				"REFERENCES payroll_submissions (id) ON DELETE CASCADE",
				"REFERENCES employees (id)",
				"DROP TABLE payroll_entries",
			},
		},
	}

	for _, tc := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", tc.pattern))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) == 0 {
			t.Fatalf("no migration matching %q found", tc.pattern)
		}

		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)

		for _, sub := range tc.checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestProductionEventsMigrationContainsIndexes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_production_events.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no production events migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE production_events",
		"CREATE UNIQUE INDEX idx_production_events_external_event_id",
		"CREATE INDEX idx_production_events_occurred_at",
		"CREATE INDEX idx_production_events_deleted_at",
		"DROP TABLE production_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTimeEntryColumnsMigrationAltersProductionEvents(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_add_time_entry_columns_to_production_events.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no time entry columns migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"ADD COLUMN kind VARCHAR(8) NOT NULL DEFAULT 'form'",
		"ADD COLUMN shift_seconds BIGINT",
		"ADD COLUMN break_seconds BIGINT",
		"DROP COLUMN kind",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
