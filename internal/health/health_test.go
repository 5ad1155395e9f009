package health

import (
	"testing"
)

func TestDBCheckerNilSafe(t *testing.T) {
	// NewDBChecker must not panic when handed a nil DB; the check itself
	// is only wired when a database is configured.
	c := NewDBChecker(nil)
	if c == nil {
		t.Fatal("expected non-nil checker")
	}
}

func TestRedisCheckerNilSafe(t *testing.T) {
	c := NewRedisChecker(nil)
	if c == nil {
		t.Fatal("expected non-nil checker")
	}
}
