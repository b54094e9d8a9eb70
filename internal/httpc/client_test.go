package httpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"producers":2}`))
		case "/bad":
			w.Write([]byte(`{not json`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	ctx := context.Background()

	var v struct {
		Producers int `json:"producers"`
	}
	if err := GetJSON(ctx, c, srv.URL+"/ok", &v); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if v.Producers != 2 {
		t.Errorf("Producers = %d, want 2", v.Producers)
	}

	if err := GetJSON(ctx, c, srv.URL+"/missing", &v); !errors.Is(err, ErrStatus) {
		t.Errorf("404 error = %v, want ErrStatus", err)
	}
	if err := GetJSON(ctx, c, srv.URL+"/bad", &v); err == nil || errors.Is(err, ErrStatus) {
		t.Errorf("malformed body error = %v, want decode error", err)
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	if got := NewClient(0).Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}
}
