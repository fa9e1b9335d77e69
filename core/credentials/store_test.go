package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStoreRoundTripsAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store := NewStore(path, WithKeyName("TEST_ORALPREP_KEY"))
	t.Setenv("TEST_ORALPREP_KEY", "")

	if store.HasKey() {
		t.Fatalf("expected no key before saving")
	}

	if err := store.SaveAPIKey("sk-test-123"); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	if got := store.APIKey(); got != "sk-test-123" {
		t.Fatalf("expected the saved key, got %q", got)
	}

	// A fresh store reading the same file must see the key even without the
	// environment variable set.
	t.Setenv("TEST_ORALPREP_KEY", "")
	fresh := NewStore(path, WithKeyName("TEST_ORALPREP_KEY"))
	if got := fresh.APIKey(); got != "sk-test-123" {
		t.Fatalf("expected the key from the file, got %q", got)
	}
	// And the file read promotes it into the environment.
	if got := os.Getenv("TEST_ORALPREP_KEY"); got != "sk-test-123" {
		t.Fatalf("expected the key promoted to the environment, got %q", got)
	}
}

func TestStoreEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store := NewStore(path, WithKeyName("TEST_ORALPREP_KEY"))
	t.Setenv("TEST_ORALPREP_KEY", "")

	if err := store.SaveAPIKey("sk-from-file"); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	t.Setenv("TEST_ORALPREP_KEY", "sk-from-env")

	if got := store.APIKey(); got != "sk-from-env" {
		t.Fatalf("expected the environment to win, got %q", got)
	}
}

func TestStorePreservesUnrelatedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment to be dropped on rewrite\nOTHER_SETTING=keep-me\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to seed env file: %v", err)
	}

	store := NewStore(path, WithKeyName("TEST_ORALPREP_KEY"))
	t.Setenv("TEST_ORALPREP_KEY", "")
	if err := store.SaveAPIKey("sk-test"); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read env file: %v", err)
	}
	if !strings.Contains(string(raw), "OTHER_SETTING=keep-me") {
		t.Fatalf("expected unrelated entries preserved, file:\n%s", raw)
	}
	if !strings.Contains(string(raw), "TEST_ORALPREP_KEY=sk-test") {
		t.Fatalf("expected the key written, file:\n%s", raw)
	}
}

func TestStoreLastModePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store := NewStore(path)

	if got := store.LastMode("toefl"); got != "toefl" {
		t.Fatalf("expected the fallback before saving, got %q", got)
	}
	if err := store.SaveLastMode("ielts"); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	if got := store.LastMode("toefl"); got != "ielts" {
		t.Fatalf("expected the saved mode, got %q", got)
	}
}

func TestStoreRejectsEmptyValues(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".env"))

	if err := store.SaveAPIKey("   "); err == nil {
		t.Fatalf("expected an error for an empty key")
	}
	if err := store.SaveLastMode(""); err == nil {
		t.Fatalf("expected an error for an empty mode")
	}
}
