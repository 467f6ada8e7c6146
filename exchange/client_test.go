package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, ts *httptest.Server, attempts int) (*Client, *[]time.Duration) {
	t.Helper()
	c := NewClient(ts.Client(), attempts, nil, nil)
	var delays []time.Duration
	c.sleep = func(d time.Duration) { delays = append(delays, d) }
	return c, &delays
}

func plainCall(url string) Call {
	return Call{
		Method: http.MethodGet,
		Prepare: func() (string, map[string]string, string) {
			return url, nil, ""
		},
	}
}

func TestClientRetryBound(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>maintenance</html>")
	}))
	defer ts.Close()

	c, delays := newTestClient(t, ts, 5)
	_, err := c.Do(context.Background(), plainCall(ts.URL))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("want ErrInvalidResponse, got %v", err)
	}
	if !errors.Is(err, ErrWrongContentType) {
		t.Fatalf("terminal error must wrap the last cause, got %v", err)
	}
	if hits != 5 {
		t.Fatalf("want exactly 5 attempts, got %d", hits)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("want %d sleeps, got %v", len(want), *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("delay %d: want %v, got %v", i, d, (*delays)[i])
		}
	}
}

func TestClientRecoversWithinBudget(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer ts.Close()

	c, _ := newTestClient(t, ts, 5)
	raw, err := c.Do(context.Background(), plainCall(ts.URL))
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	var body struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || !body.OK {
		t.Fatalf("unexpected body %s", raw)
	}
	if hits != 3 {
		t.Fatalf("want 3 attempts, got %d", hits)
	}
}

func TestClientRetriesApplicationErrors(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"error":"invalid nonce"}`)
	}))
	defer ts.Close()

	c, _ := newTestClient(t, ts, 3)
	call := plainCall(ts.URL)
	call.Check = func(raw json.RawMessage) error {
		var env struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return err
		}
		if env.Error != "" {
			return &APIError{Exchange: "test", Message: env.Error}
		}
		return nil
	}
	_, err := c.Do(context.Background(), call)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("want ErrInvalidResponse, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("terminal error must carry the api error, got %v", err)
	}
	if hits != 3 {
		t.Fatalf("want 3 attempts, got %d", hits)
	}
}

func TestClientNoOrdersIsNotRetried(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":0,"error":"no orders"}`)
	}))
	defer ts.Close()

	c, delays := newTestClient(t, ts, 5)
	call := plainCall(ts.URL)
	call.Check = func(json.RawMessage) error { return ErrNoOrders }
	_, err := c.Do(context.Background(), call)
	if !errors.Is(err, ErrNoOrders) {
		t.Fatalf("want ErrNoOrders, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("no-orders must not be retried, got %d attempts", hits)
	}
	if len(*delays) != 0 {
		t.Fatalf("no sleeps expected, got %v", *delays)
	}
}

func TestClientFreshSignaturePerAttempt(t *testing.T) {
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Nonce"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	nonce := 0
	c, _ := newTestClient(t, ts, 3)
	call := Call{
		Method: http.MethodGet,
		Prepare: func() (string, map[string]string, string) {
			nonce++
			return ts.URL, map[string]string{"X-Nonce": string(rune('a' + nonce))}, ""
		},
	}
	_, _ = c.Do(context.Background(), call)
	if len(seen) != 3 {
		t.Fatalf("want 3 attempts, got %d", len(seen))
	}
	if seen[0] == seen[1] || seen[1] == seen[2] {
		t.Fatalf("Prepare must run per attempt, got %v", seen)
	}
}
