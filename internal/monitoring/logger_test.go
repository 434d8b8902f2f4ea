package monitoring

import (
	"fmt"
	"testing"
)

func capture(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() {
		Logf = original
		SetDebug(false)
	})

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := capture(t)
	Logf("loaded %d rows", 3)
	if len(*lines) != 1 || (*lines)[0] != "loaded 3 rows" {
		t.Errorf("custom logger got %q", *lines)
	}

	SetLogger(nil)
	Logf("muted")
	if len(*lines) != 1 {
		t.Error("nil logger should be a no-op")
	}
}

func TestDebugf(t *testing.T) {
	lines := capture(t)

	Debugf("rejected %q", "0 2024-06-17")
	if len(*lines) != 0 {
		t.Fatalf("debug output should be off by default, got %q", *lines)
	}

	SetDebug(true)
	if !DebugEnabled() {
		t.Fatal("DebugEnabled() = false after SetDebug(true)")
	}
	Debugf("rejected %q", "0 2024-06-17")
	want := `debug: rejected "0 2024-06-17"`
	if len(*lines) != 1 || (*lines)[0] != want {
		t.Errorf("got %q, want %q", *lines, want)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
