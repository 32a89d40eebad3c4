package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/incuhub/incuhub/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL: baseURL,
		AuthKey: "shared-key",
		Timeout: config.Duration(0),
	}, nil)
}

func TestResolveRoute(t *testing.T) {
	resolved, err := ResolveRoute("/startups/{startup_id}/founders/{founder_id}/image", Params{
		"startup_id": "3",
		"founder_id": "7",
	})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if resolved != "/startups/3/founders/7/image" {
		t.Fatalf("unexpected route: %s", resolved)
	}
}

func TestResolveRouteMissingParam(t *testing.T) {
	_, err := ResolveRoute("/events/{event_id}", Params{})
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Kind != ErrorMissingParam || upErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected error classification: %+v", upErr)
	}
}

func TestFetchJSONSendsAuthHeader(t *testing.T) {
	var seenAuth string
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("X-Group-Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Demo"}]`))
	}))
	defer stub.Close()

	result, err := newTestClient(stub.URL).Fetch(context.Background(), "/events", nil)
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if seenAuth != "shared-key" {
		t.Fatalf("auth header missing, got %q", seenAuth)
	}
	if result.Kind != KindJSON || !result.OK() {
		t.Fatalf("unexpected result: %+v", result)
	}
	if string(result.JSON) != `[{"id":1,"name":"Demo"}]` {
		t.Fatalf("payload mismatch: %s", result.JSON)
	}
}

func TestFetchBinary(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer stub.Close()

	result, err := newTestClient(stub.URL).Fetch(context.Background(), "/events/{event_id}/image", Params{"event_id": "7"})
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if result.Kind != KindBinary {
		t.Fatalf("expected binary result, got %+v", result)
	}
	if string(result.Body) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestFetchPassesThroughUpstreamStatus(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"unavailable"}`))
	}))
	defer stub.Close()

	result, err := newTestClient(stub.URL).Fetch(context.Background(), "/news", nil)
	if err != nil {
		t.Fatalf("non-2xx must not be an error: %v", err)
	}
	if result.Status != http.StatusServiceUnavailable {
		t.Fatalf("status not preserved: %d", result.Status)
	}
	if string(result.JSON) != `{"detail":"unavailable"}` {
		t.Fatalf("body not preserved: %s", result.JSON)
	}
}

func TestFetchMasksNetworkFailureAs404(t *testing.T) {
	// 端口保证关闭：先起再停，复用其地址。
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := stub.URL
	stub.Close()

	_, err := newTestClient(addr).Fetch(context.Background(), "/partners", nil)
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Kind != ErrorUnreachable {
		t.Fatalf("expected unreachable, got %s", upErr.Kind)
	}
	if upErr.Status != http.StatusNotFound {
		t.Fatalf("outages must degrade to 404, got %d", upErr.Status)
	}
}

func TestFetchRejectsUnsupportedContentType(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer stub.Close()

	_, err := newTestClient(stub.URL).Fetch(context.Background(), "/events/{event_id}/image", Params{"event_id": "1"})
	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upErr.Kind != ErrorUnsupportedContentType || upErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected classification: %+v", upErr)
	}
}
