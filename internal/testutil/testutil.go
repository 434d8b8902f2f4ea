// Package testutil provides shared test utilities and fixtures: data file
// rows in the on-disk formats and loopback requests for the debug routes.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/humidity.report/internal/fsutil"
)

// LoopbackAddr is the RemoteAddr of requests built by NewDebugRequest. The
// tsweb debug handlers only answer loopback peers.
const LoopbackAddr = "127.0.0.1:12345"

// SensorLine formats one sensor row: port, date, time, humidity %, temperature C.
func SensorLine(port int, ts time.Time, rh, tempC float64) string {
	return fmt.Sprintf("%d %s %.2f %.2f\n", port, ts.Format(time.DateTime), rh, tempC)
}

// WeatherLine formats one weather row: date, time, humidity %, temperature F,
// precipitation mm.
func WeatherLine(ts time.Time, rh, tempF, precip float64) string {
	return fmt.Sprintf("%s %.0f %.1f %.1f\n", ts.Format(time.DateTime), rh, tempF, precip)
}

// WriteLines replaces path with the concatenated lines.
func WriteLines(t testing.TB, fs fsutil.FileSystem, path string, lines ...string) {
	t.Helper()
	if err := fs.WriteFile(path, []byte(strings.Join(lines, "")), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// AppendLines appends the concatenated lines to path.
func AppendLines(t testing.TB, fs fsutil.FileSystem, path string, lines ...string) {
	t.Helper()
	if err := fs.AppendFile(path, []byte(strings.Join(lines, "")), 0644); err != nil {
		t.Fatalf("append %s: %v", path, err)
	}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewDebugRequest creates a test HTTP request from a loopback peer.
func NewDebugRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = LoopbackAddr
	return req
}
