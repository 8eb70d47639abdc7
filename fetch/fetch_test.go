package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aluiziolira/go-etl-books/config"
	"github.com/aluiziolira/go-etl-books/metrics"
)

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test/"

	client, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)
	return client, transport
}

func TestFetchReturnsBody(t *testing.T) {
	client, transport := newTestClient(t)
	transport.RegisterResponder("GET", "http://example.test/page",
		httpmock.NewStringResponder(200, "<html>hello</html>"))

	body, err := client.Fetch(context.Background(), "http://example.test/page")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "<html>hello</html>" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetchClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		label  string
	}{
		{status: http.StatusNotFound, label: "not_found"},
		{status: http.StatusForbidden, label: "forbidden"},
		{status: http.StatusInternalServerError, label: "http_status"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			client, transport := newTestClient(t)
			transport.RegisterResponder("GET", "http://example.test/page",
				httpmock.NewStringResponder(tt.status, ""))

			_, err := client.Fetch(context.Background(), "http://example.test/page")
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := ErrorLabel(err); got != tt.label {
				t.Fatalf("label = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestFetchRequestPhases(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.test/"

	m := metrics.New()
	client, err := New(cfg, m)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport := httpmock.NewMockTransport()
	client.WithTransport(transport)

	transport.RegisterResponder("GET", "http://example.test/ok",
		httpmock.NewStringResponder(200, "<html></html>"))
	transport.RegisterResponder("GET", "http://example.test/missing",
		httpmock.NewStringResponder(404, ""))

	if _, err := client.Fetch(context.Background(), "http://example.test/ok"); err != nil {
		t.Fatalf("fetch ok: %v", err)
	}
	if _, err := client.Fetch(context.Background(), "http://example.test/missing"); err == nil {
		t.Fatalf("expected error for missing page")
	}

	tests := []struct {
		phase string
		want  float64
	}{
		{phase: "started", want: 2},
		{phase: "succeeded", want: 1},
		{phase: "failed", want: 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(tt.phase)); got != tt.want {
			t.Fatalf("requests{phase=%q} = %v, want %v", tt.phase, got, tt.want)
		}
	}
}

func TestFetchCancelledContext(t *testing.T) {
	client, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Fetch(ctx, "http://example.test/page"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "server error", err: nil, statusCode: http.StatusBadGateway, expected: "http_status"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorLabel(Classify(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("Classify(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}
