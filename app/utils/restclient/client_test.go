package restclient

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRestClient(t *testing.T) {
	c := NewRestClient("http://test", map[string]string{"x": "y"})
	if c.baseURL != "http://test" {
		t.Fail()
	}
	if c.headers["x"] != "y" {
		t.Fail()
	}
	if c.httpClient == nil {
		t.Fail()
	}
}

func TestRestClient(t *testing.T) {
	ctx := context.Background()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer ts.Close()
	cases := []struct {
		name     string
		method   string
		baseURL  string
		endpoint string
		body     any
		expectOK bool
	}{
		{"get_ok", http.MethodGet, ts.URL, "/", nil, true},
		{"post_ok", http.MethodPost, ts.URL, "/", map[string]string{"x": "y"}, true},
		{"delete_ok", http.MethodDelete, ts.URL, "/", nil, true},
		{"invalid_url", http.MethodGet, "://bad", "", nil, false},
		{"json_error", http.MethodPost, ts.URL, "/", func() {}, false},
		{"server_closed", http.MethodGet, "", "/", nil, false},
	}
	for _, cse := range cases {
		t.Run(cse.name, func(t *testing.T) {
			var rc *RestClient
			if cse.name == "server_closed" {
				s := httptest.NewServer(nil)
				s.Close()
				rc = NewRestClient(s.URL, nil)
			} else {
				rc = NewRestClient(cse.baseURL, nil)
			}
			var b []byte
			var s int
			var err error
			switch cse.method {
			case http.MethodGet:
				b, s, err = rc.Get(ctx, cse.endpoint, nil)
			case http.MethodPost:
				b, s, err = rc.Post(ctx, cse.endpoint, cse.body, nil)
			case http.MethodDelete:
				b, s, err = rc.Delete(ctx, cse.endpoint, nil)
			}
			if cse.expectOK && (err != nil || s != http.StatusOK || string(b) != "ok") {
				t.Fail()
			}
			if !cse.expectOK && err == nil {
				t.Fail()
			}
		})
	}
}

func TestPostStream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("missing Accept header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: one\n\ndata: two\n\n"))
	}))
	defer ts.Close()

	rc := NewRestClient(ts.URL, nil)
	body, status, err := rc.PostStream(context.Background(), "/", map[string]string{"q": "x"}, nil)
	if err != nil || status != http.StatusOK {
		t.Fatalf("unexpected stream error: %v status %d", err, status)
	}
	defer body.Close()

	var lines []string
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	if len(lines) != 2 || lines[0] != "data: one" || lines[1] != "data: two" {
		t.Fatalf("unexpected stream lines: %#v", lines)
	}
}

func TestPostStreamErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer ts.Close()

	rc := NewRestClient(ts.URL, nil)
	body, status, err := rc.PostStream(context.Background(), "/", nil, nil)
	if err == nil || body != nil || status != http.StatusUnauthorized {
		t.Fatalf("expected error for 401, got body=%v status=%d err=%v", body, status, err)
	}
}
