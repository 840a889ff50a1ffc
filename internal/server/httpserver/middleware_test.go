package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lifeledger/lifeledger/internal/logging"
	"github.com/lifeledger/lifeledger/internal/server/uploads"
)

// logLines decodes every JSON log record written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("bad log line: %v", err)
		}
		lines = append(lines, m)
	}
	return lines
}

func findLine(lines []map[string]any, msg string) map[string]any {
	for _, l := range lines {
		if l["msg"] == msg {
			return l
		}
	}
	return nil
}

func newLoggingTestServer(a AuthService, u UploadService, r SessionResolver) (*Server, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	sl := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewServer("127.0.0.1:0", logging.NewSlogLogger(sl), a, u, r), buf
}

func TestRequestLogging_GeneratesRequestID(t *testing.T) {
	srv, buf := newLoggingTestServer(&fakeAuth{}, &fakeUploads{}, &fakeResolver{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	lines := logLines(t, buf)

	completed := findLine(lines, "request completed")
	if completed == nil {
		t.Fatalf("no completion log line: %s", buf.String())
	}
	id, _ := completed["request_id"].(string)
	if id == "" {
		t.Errorf("completion line has no request_id: %v", completed)
	}
	if completed["status_code"] != float64(http.StatusOK) || completed["path"] != "/healthz" {
		t.Errorf("unexpected completion line: %v", completed)
	}

	incoming := findLine(lines, "incoming request")
	if incoming == nil {
		t.Fatalf("no incoming log line: %s", buf.String())
	}
	if incoming["request_id"] != id {
		t.Errorf("incoming and completion lines carry different request IDs: %v vs %v", incoming["request_id"], id)
	}
}

func TestRequestLogging_HonorsUpstreamRequestID(t *testing.T) {
	srv, buf := newLoggingTestServer(&fakeAuth{}, &fakeUploads{}, &fakeResolver{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-from-proxy")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	completed := findLine(logLines(t, buf), "request completed")
	if completed == nil {
		t.Fatalf("no completion log line: %s", buf.String())
	}
	if completed["request_id"] != "req-from-proxy" {
		t.Errorf("want req-from-proxy, got %v", completed["request_id"])
	}
}

func TestRequestLogging_CapturesErrorStatus(t *testing.T) {
	srv, buf := newLoggingTestServer(&fakeAuth{}, &fakeUploads{}, &fakeResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	completed := findLine(logLines(t, buf), "request completed")
	if completed == nil {
		t.Fatalf("no completion log line: %s", buf.String())
	}
	if completed["status_code"] != float64(http.StatusUnauthorized) {
		t.Errorf("want 401 in log, got %v", completed["status_code"])
	}
}

// ctxUploads records the request ID visible to the service layer.
type ctxUploads struct {
	fakeUploads
	seenRequestID string
}

func (c *ctxUploads) List(ctx context.Context, userID string) ([]*uploads.DocumentView, error) {
	c.seenRequestID = logging.RequestIDFrom(ctx)
	return []*uploads.DocumentView{}, nil
}

func TestRequestLogging_RequestIDReachesServices(t *testing.T) {
	u := &ctxUploads{}
	srv, _ := newLoggingTestServer(&fakeAuth{}, u, &fakeResolver{claims: sessionClaims()})

	req := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	req.Header.Set("X-Request-ID", "req-svc")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if u.seenRequestID != "req-svc" {
		t.Errorf("service did not see the request ID, got %q", u.seenRequestID)
	}
}
