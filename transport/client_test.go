package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetSuccess(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		gotHeader = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	resp, err := New(nil).Get(context.Background(), srv.URL+"/v1/models", map[string]string{"x-api-key": "sk-test"}, time.Second)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"data":[]}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if gotHeader != "sk-test" {
		t.Errorf("x-api-key header = %q, want sk-test", gotHeader)
	}
}

func TestGetStatusError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		body     []byte
		wantBody string
	}{
		{"text body", http.StatusUnauthorized, []byte(`{"error":"bad key"}`), `{"error":"bad key"}`},
		{"empty body", http.StatusTooManyRequests, nil, ""},
		{"binary body", http.StatusInternalServerError, []byte{0xff, 0xfe, 0xfd}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			_, err := New(nil).Get(context.Background(), srv.URL, nil, time.Second)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("Get() error = %v, want *StatusError", err)
			}
			if se.Code != tt.code {
				t.Errorf("Code = %d, want %d", se.Code, tt.code)
			}
			if se.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", se.Body, tt.wantBody)
			}
		})
	}
}

func TestGetTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(nil).Get(context.Background(), url, nil, time.Second)
	if err == nil {
		t.Fatal("Get() against a closed server should fail")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("connection failure classified as HTTP status %d", se.Code)
	}
}

func TestGetTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(nil).Get(context.Background(), srv.URL, nil, 50*time.Millisecond)
	if err == nil {
		t.Fatal("Get() should time out")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("timeout classified as HTTP status %d", se.Code)
	}
}
