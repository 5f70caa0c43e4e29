package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSSEWriterEvent(t *testing.T) {
	resp := httptest.NewRecorder()

	sse, err := NewSSEWriter(resp)
	if err != nil {
		t.Fatalf("NewSSEWriter err: %v", err)
	}
	sse.Event("emotion", map[string]string{"detected": "joy"})

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "event: emotion\ndata: {\"detected\":\"joy\"}\n\n") {
		t.Fatalf("unexpected body %q", body)
	}
	if !resp.Flushed {
		t.Fatal("expected flush")
	}
}

type plainWriter struct{ http.ResponseWriter }

func TestSSEWriterRequiresFlusher(t *testing.T) {
	if _, err := NewSSEWriter(plainWriter{httptest.NewRecorder()}); err != ErrStreamingUnsupported {
		t.Fatalf("expected ErrStreamingUnsupported, got %v", err)
	}
}
