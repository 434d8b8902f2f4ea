package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMockHTTPClient_Queue(t *testing.T) {
	m := NewMockHTTPClient().
		AddResponse(http.StatusServiceUnavailable, "busy").
		AddErrorResponse(errors.New("connection refused")).
		AddResponse(http.StatusOK, "62% +68°F 0.0mm")

	req, _ := http.NewRequest(http.MethodGet, "http://wttr.in/Charlottesville", nil)

	resp, err := m.Do(req)
	if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("first response = %v, %v", resp, err)
	}
	if _, err := m.Do(req); err == nil {
		t.Fatal("second response should be a transport error")
	}
	resp, err = m.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "62% +68°F 0.0mm" {
		t.Errorf("body = %q", body)
	}

	resp, err = m.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("exhausted queue should answer 200, got %v %v", resp, err)
	}
	if m.RequestCount() != 4 {
		t.Errorf("RequestCount() = %d, want 4", m.RequestCount())
	}
	if m.Request(0).URL.Host != "wttr.in" || m.Request(9) != nil {
		t.Error("unexpected recorded requests")
	}
}

func TestStandardClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	c := NewStandardClient(nil)
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "hygroplot-test")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hygroplot-test" {
		t.Errorf("body = %q", body)
	}
}

func TestJSONResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "missing command") }, http.StatusBadRequest, "missing command"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "write failed") }, http.StatusInternalServerError, "write failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["error"] != tt.msg {
				t.Errorf("error = %q, want %q", body["error"], tt.msg)
			}
		})
	}
}
