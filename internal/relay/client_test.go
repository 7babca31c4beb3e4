package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-overlay/pkg/overlaydto"
)

func TestPostFrameRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/frames" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Overlay-Token") != "secret" {
			t.Errorf("missing header")
		}
		var f overlaydto.Frame
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil || f.Type != overlaydto.FrameHide {
			t.Errorf("bad body: %v %+v", err, f)
		}
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithHeaderProvider(func() map[string]string {
		return map[string]string{"X-Overlay-Token": "secret", " ": "ignored"}
	}))
	if err := c.PostFrame(context.Background(), &overlaydto.Frame{Type: overlaydto.FrameHide, Room: "r"}); err != nil {
		t.Fatalf("PostFrame: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestPostFrameNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).PostFrame(context.Background(), &overlaydto.Frame{Type: overlaydto.FrameHide})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","rooms":2}`))
	}))
	defer srv.Close()

	h, err := NewClient(srv.URL, WithTimeout(time.Second)).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" || h.Rooms != 2 {
		t.Fatalf("health = %+v", h)
	}
}

func TestBackoff(t *testing.T) {
	if backoffDuration(0) != 100*time.Millisecond || backoffDuration(3) != 400*time.Millisecond {
		t.Fatalf("backoff mismatch")
	}
	if backoffDuration(99) != backoffDuration(6) {
		t.Fatalf("backoff not capped")
	}
}
