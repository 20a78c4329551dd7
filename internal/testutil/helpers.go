package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// PerformRequest sends a JSON request through handler. body is marshalled
// unless it is nil or already a string; token adds a Bearer header.
func PerformRequest(t testing.TB, handler http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		var err error
		if payload, err = json.Marshal(b); err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// DecodeJSON unmarshals the recorded body into a generic map.
func DecodeJSON(t testing.TB, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// RecordingSender captures mail instead of delivering it. A non-nil Err is
// returned from every Send after the message is recorded.
type RecordingSender struct {
	mu       sync.Mutex
	Messages []Mail
	Err      error
}

type Mail struct {
	To      string
	Subject string
	Body    string
}

func (r *RecordingSender) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Mail{To: to, Subject: subject, Body: body})
	return r.Err
}

// LastCode returns the confirmation code from the newest message sent to to.
func (r *RecordingSender) LastCode(t testing.TB, to string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].To != to {
			continue
		}
		const marker = "confirmation code: "
		body := r.Messages[i].Body
		if idx := strings.Index(body, marker); idx >= 0 {
			return strings.TrimSpace(body[idx+len(marker):])
		}
	}
	t.Fatalf("No confirmation code mailed to %s", to)
	return ""
}
