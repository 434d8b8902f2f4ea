package poller

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLastLine(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"a\n":           "a",
		"a\nb\n":        "b",
		"a\r\nb\r\n":    "b",
		"a\n\n":         "",
		"first\nlast\n": "last",
	}
	for in, want := range tests {
		if got := lastLine([]byte(in)); got != want {
			t.Errorf("lastLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWatermark_Advance(t *testing.T) {
	data := []byte("one\ntwo\r\nthr")

	lines, mark := watermark{}.advance(data)
	if diff := cmp.Diff([]string{"one", "two"}, lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if mark.offset != 9 || mark.line != "two" {
		t.Errorf("mark = %+v", mark)
	}

	lines, again := mark.advance(data)
	if len(lines) != 0 || again != mark {
		t.Errorf("no complete line after the mark: %q %+v", lines, again)
	}

	data = append(data, "ee\nfour\n"...)
	lines, mark = mark.advance(data)
	if diff := cmp.Diff([]string{"three", "four"}, lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if mark.line != "four" || mark.offset != int64(len(data)) {
		t.Errorf("mark = %+v", mark)
	}
}

func TestWatermark_Valid(t *testing.T) {
	mark := watermark{offset: 8, line: "two"}

	tests := []struct {
		name string
		data string
		want bool
	}{
		{"unchanged", "one\ntwo\n", true},
		{"appended", "one\ntwo\nthree\n", true},
		{"shrank", "one\n", false},
		{"marked line changed", "one\ntwx\n", false},
		{"boundary moved", "one\ntwoo\n", false},
		{"truncated to empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mark.valid([]byte(tt.data)); got != tt.want {
				t.Errorf("valid(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}

	if !(watermark{}).valid(nil) {
		t.Error("zero watermark is always valid")
	}
}
