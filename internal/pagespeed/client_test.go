package pagespeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const successBody = `{
	"lighthouseResult": {
		"categories": {"performance": {"score": 0.87}},
		"audits": {
			"first-contentful-paint": {"displayValue": "1.2 s"},
			"largest-contentful-paint": {"displayValue": "2.4 s"},
			"total-blocking-time": {"displayValue": "150 ms"},
			"cumulative-layout-shift": {"displayValue": "0.01"}
		}
	}
}`

func newTestClient(serverURL string) *Client {
	return NewClient(ClientOpts{APIKey: "test-key", Endpoint: serverURL})
}

func TestFetch_Success(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"url":      r.URL.Query().Get("url"),
			"strategy": r.URL.Query().Get("strategy"),
			"key":      r.URL.Query().Get("key"),
		}
		w.Write([]byte(successBody))
	}))
	defer srv.Close()

	m, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["url"] != "https://example.com" {
		t.Errorf("url param = %q, want %q", gotQuery["url"], "https://example.com")
	}
	if gotQuery["strategy"] != "mobile" {
		t.Errorf("strategy param = %q, want %q", gotQuery["strategy"], "mobile")
	}
	if gotQuery["key"] != "test-key" {
		t.Errorf("key param = %q, want %q", gotQuery["key"], "test-key")
	}

	if m.Score == nil || *m.Score != 87 {
		t.Errorf("score = %v, want 87", m.Score)
	}
	if m.FCP != "1.2 s" {
		t.Errorf("fcp = %q, want %q", m.FCP, "1.2 s")
	}
	if m.LCP != "2.4 s" {
		t.Errorf("lcp = %q, want %q", m.LCP, "2.4 s")
	}
	if m.TBT != "150 ms" {
		t.Errorf("tbt = %q, want %q", m.TBT, "150 ms")
	}
	if m.CLS != "0.01" {
		t.Errorf("cls = %q, want %q", m.CLS, "0.01")
	}
}

func TestFetch_ScoreRounding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lighthouseResult": {"categories": {"performance": {"score": 0.985}}}}`))
	}))
	defer srv.Close()

	m, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceDesktop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Score == nil || *m.Score != 99 {
		t.Errorf("score = %v, want 99 (rounded from 0.985)", m.Score)
	}
}

func TestFetch_MissingScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lighthouseResult": {"categories": {}, "audits": {}}}`))
	}))
	defer srv.Close()

	m, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	if err != nil {
		t.Fatalf("missing score must not be an error, got: %v", err)
	}
	if m.Score != nil {
		t.Errorf("score = %d, want nil", *m.Score)
	}
	if m.FCP != "" || m.LCP != "" || m.TBT != "" || m.CLS != "" {
		t.Errorf("audits = %+v, want empty strings", m)
	}
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Score != nil {
		t.Errorf("score = %d, want nil", *m.Score)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "backend overloaded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", apiErr.StatusCode)
	}
	if !apiErr.Transient() {
		t.Error("503 should be transient")
	}
	if want := "HTTP 503: backend overloaded"; apiErr.Error() != want {
		t.Errorf("error string = %q, want %q", apiErr.Error(), want)
	}
}

func TestFetch_HTTPErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Transient() {
		t.Error("404 should not be transient")
	}
	if want := "HTTP 404: Not Found"; apiErr.Error() != want {
		t.Errorf("error string = %q, want %q", apiErr.Error(), want)
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure classified as *APIError: %v", err)
	}
}

func TestFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lighthouseResult": `))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "https://example.com", DeviceMobile)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("decode failure classified as *APIError: %v", err)
	}
}

func TestTransient(t *testing.T) {
	transient := []int{429, 500, 502, 503, 504}
	for _, code := range transient {
		if !(&APIError{StatusCode: code}).Transient() {
			t.Errorf("status %d should be transient", code)
		}
	}
	permanent := []int{400, 401, 403, 404, 501}
	for _, code := range permanent {
		if (&APIError{StatusCode: code}).Transient() {
			t.Errorf("status %d should not be transient", code)
		}
	}
}

func TestParseDevice(t *testing.T) {
	if d, err := ParseDevice("mobile"); err != nil || d != DeviceMobile {
		t.Errorf("ParseDevice(mobile) = %v, %v", d, err)
	}
	if d, err := ParseDevice("desktop"); err != nil || d != DeviceDesktop {
		t.Errorf("ParseDevice(desktop) = %v, %v", d, err)
	}
	if _, err := ParseDevice("tablet"); err == nil {
		t.Error("ParseDevice(tablet) should fail")
	}
}
