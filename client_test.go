package sdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/behavioguard/behavioguard-go/headers"
)

func TestNewClientValidatesBaseURL(t *testing.T) {
	cases := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"empty", "", true},
		{"missing scheme", "example.com/api", true},
		{"valid", "http://example.com/api", false},
		{"trailing slash trimmed", "http://example.com/api/", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(Config{BaseURL: tc.baseURL})
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRequestCarriesBearerAndCorrelationHeaders(t *testing.T) {
	var captured http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		writeJSON(t, w, http.StatusOK, map[string]any{"posts": []Post{}})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, DeviceID: "device-42"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedCredentials(t, client, "access-1", "refresh-1")

	if _, err := client.Posts.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := captured.Get("Authorization"); got != "Bearer access-1" {
		t.Errorf("Authorization = %q", got)
	}
	if captured.Get(headers.RequestID) == "" {
		t.Error("missing request id header")
	}
	if got := captured.Get(headers.DeviceID); got != "device-42" {
		t.Errorf("device id = %q", got)
	}
	if got := captured.Get("User-Agent"); got != defaultUserAgent {
		t.Errorf("user agent = %q", got)
	}
}

func TestUnauthenticatedRequestSendsNoBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "missing token"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	// No credentials loaded: the request goes out bare and the server rejects it.
	_, err = client.Posts.List(context.Background())
	var apiErr *APIError
	if !AsAPIError(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
}

func TestDecodesFastAPIDetailErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]string{"detail": "Email already exists"})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Auth.Register(context.Background(), "taken@example.com", "pw", "Taken")
	var apiErr *APIError
	if !AsAPIError(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Email already exists" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestTimeoutClassifiedAsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := NewClient(Config{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 20 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedCredentials(t, client, "access-1", "refresh-1")

	_, err = client.Posts.List(context.Background())
	var terr TransportError
	if !asTransportError(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if terr.Kind != TransportErrorKindTimeout {
		t.Fatalf("expected timeout kind, got %v", terr.Kind)
	}
}

func TestConnectionFailureClassifiedAsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedCredentials(t, client, "access-1", "refresh-1")

	_, err = client.Posts.List(context.Background())
	var terr TransportError
	if !asTransportError(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if terr.Kind != TransportErrorKindNetwork {
		t.Fatalf("expected network kind, got %v", terr.Kind)
	}
}

func TestTelemetryHooksObserveRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"posts": []Post{}})
	}))
	defer srv.Close()

	var requests, responses int
	client, err := NewClient(Config{
		BaseURL: srv.URL,
		Telemetry: TelemetryHooks{
			OnHTTPRequest: func(ctx context.Context, req *http.Request) { requests++ },
			OnHTTPResponse: func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
				responses++
			},
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	seedCredentials(t, client, "access-1", "refresh-1")

	if _, err := client.Posts.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if requests != 1 || responses != 1 {
		t.Fatalf("hooks fired %d/%d times", requests, responses)
	}
}
