package revenuecat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHasEntitlement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		switch r.URL.Path {
		case "/subscribers/1":
			_, _ = w.Write([]byte(`{"subscriber":{"entitlements":{"pro":{"expires_date":null}}}}`))
		case "/subscribers/2":
			_, _ = w.Write([]byte(`{"subscriber":{"entitlements":{"pro":{"expires_date":"2000-01-01T00:00:00Z"}}}}`))
		case "/subscribers/3":
			_, _ = w.Write([]byte(`{"subscriber":{"entitlements":{"plus":{"expires_date":null}}}}`))
		case "/subscribers/4":
			_, _ = w.Write([]byte(`{"subscriber":{"entitlements":{"pro":{"expires_date":"2999-01-01T00:00:00Z"}}}}`))
		case "/subscribers/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient("sk_test", "pro", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	tests := []struct {
		user    string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{"2", false, false},
		{"3", false, false},
		{"4", true, false},
		{"404", false, false},
		{"500", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got, err := client.HasEntitlement(context.Background(), tt.user)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDisabledClientSkipsNetwork(t *testing.T) {
	client := NewClient("", "pro", WithBaseURL("http://127.0.0.1:1"))
	if client.Enabled() {
		t.Fatalf("expected client without secret to be disabled")
	}
	ok, err := client.HasEntitlement(context.Background(), "1")
	if ok || err != nil {
		t.Fatalf("expected false, nil; got %v, %v", ok, err)
	}
}
