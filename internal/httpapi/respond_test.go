package httpapi

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLogRequestErrorCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	logRequestError(ctx, logger, "failed to load quest", errors.New("boom"), 7)

	out := buf.String()
	for _, want := range []string{`"requestId":"req-42"`, `"userId":7`, `"error":"boom"`, `"msg":"failed to load quest"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log line %s", want, out)
		}
	}
}
