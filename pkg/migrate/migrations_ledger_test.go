package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, glob string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", glob))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %q", glob)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestAccountsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_accounts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS accounts",
		"version bigint NOT NULL DEFAULT 0",
		"CHECK (currency IN ('USD', 'CDF', 'CNY'))",
		"idx_accounts_org_name ON accounts (organization_id, name)",
		"DROP TABLE IF EXISTS accounts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMovementsMigrationKeepsLogAppendOnly(t *testing.T) {
	content := readMigration(t, "*_create_movements.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS movements",
		"balance_before numeric(18,2) NOT NULL",
		"balance_after numeric(18,2) NOT NULL",
		"reversal_of uuid REFERENCES movements(id)",
		"CHECK (amount > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPendingMigrationEnforcesSingleLiveEntry(t *testing.T) {
	content := readMigration(t, "*_create_pending_transactions.sql")

	if !strings.Contains(content, "WHERE status = 'pending'") {
		t.Errorf("partial unique index on live pending entries is missing")
	}
	if !strings.Contains(content, "ON pending_transactions (organization_id, channel_id)") {
		t.Errorf("unique index must scope to organization and channel")
	}
}
