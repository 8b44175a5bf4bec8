package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/develand/impulsos-backend/pkg/migrate"
)

func TestTransactionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE transactions",
		"CHECK (amount > 0)",
		"refund_of BIGINT REFERENCES transactions(id)",
		"idx_transactions_user_created",
		"DROP TABLE transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReferralsMigrationEnforcesUniquePair(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_referrals.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no referrals migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "UNIQUE (referrer_id, referred_id)") {
		t.Error("referrals migration missing unique pair constraint")
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
}
