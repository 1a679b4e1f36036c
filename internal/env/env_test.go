package env

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestGetters(t *testing.T) {
	t.Setenv("AUTOCARD_TEST_STRING", "hello")
	t.Setenv("AUTOCARD_TEST_INT", " 42 ")
	t.Setenv("AUTOCARD_TEST_BAD_INT", "forty")
	t.Setenv("AUTOCARD_TEST_BOOL", "false")
	t.Setenv("AUTOCARD_TEST_DURATION", "90s")
	t.Setenv("AUTOCARD_TEST_LIST", " cdn.test, ,img.test:8443 ")

	if got := GetString("AUTOCARD_TEST_STRING", "x"); got != "hello" {
		t.Errorf("GetString() = %q, want hello", got)
	}
	if got := GetString("AUTOCARD_TEST_MISSING", "x"); got != "x" {
		t.Errorf("GetString() = %q, want fallback", got)
	}
	if got := GetInt("AUTOCARD_TEST_INT", 1); got != 42 {
		t.Errorf("GetInt() = %d, want 42", got)
	}
	if got := GetInt("AUTOCARD_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetInt() = %d, want fallback 7", got)
	}
	if got := GetBool("AUTOCARD_TEST_BOOL", true); got {
		t.Errorf("GetBool() = true, want false")
	}
	if got := GetDuration("AUTOCARD_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("GetDuration() = %v, want 90s", got)
	}
	if got := GetDuration("AUTOCARD_TEST_MISSING", time.Second); got != time.Second {
		t.Errorf("GetDuration() = %v, want fallback", got)
	}
	if got := GetStringSlice("AUTOCARD_TEST_LIST", nil); !slices.Equal(got, []string{"cdn.test", "img.test:8443"}) {
		t.Errorf("GetStringSlice() = %q, want trimmed items", got)
	}
	if got := GetStringSlice("AUTOCARD_TEST_MISSING", []string{"x"}); !slices.Equal(got, []string{"x"}) {
		t.Errorf("GetStringSlice() = %q, want fallback", got)
	}
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("AUTOCARD_TEST_LOADED=yes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("AUTOCARD_TEST_LOADED") })

	LoadEnv(path)
	if got := GetString("AUTOCARD_TEST_LOADED", ""); got != "yes" {
		t.Errorf("LoadEnv() did not load variable, got %q", got)
	}

	// Missing files are ignored
	LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
}
