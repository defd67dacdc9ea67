package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/Tih000/quest/internal/quest"
	"github.com/Tih000/quest/internal/user"
	"github.com/Tih000/quest/shared/auth"
	sharederrors "github.com/Tih000/quest/shared/errors"
	"github.com/Tih000/quest/shared/logging"
)

var errInvalidPayload = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	sharederrors.Write(w, code, message, middleware.GetReqID(r.Context()))
}

// respondServiceError maps domain errors to the error envelope. Unknown errors
// are logged and reported as internal.
func (h *handlers) respondServiceError(w http.ResponseWriter, r *http.Request, message string, err error, userID int64) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "user not found")
	case errors.Is(err, quest.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "quest not found")
	case errors.Is(err, user.ErrConflict):
		writeError(w, r, sharederrors.CodeConflict, err.Error())
	case errors.Is(err, user.ErrInvalidInput), errors.Is(err, quest.ErrInvalidInput):
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logRequestError(r.Context(), h.logger, message, err, userID)
		writeError(w, r, sharederrors.CodeInternal, "request timed out")
	default:
		logRequestError(r.Context(), h.logger, message, err, userID)
		writeError(w, r, sharederrors.CodeInternal, message)
	}
}

// decodeBody decodes a single JSON object, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errInvalidPayload
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidPayload
	}
	return nil
}

func currentUserID(r *http.Request) (int64, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u.UserID <= 0 {
		return 0, false
	}
	return u.UserID, true
}

func questIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID int64) {
	if logger == nil || err == nil {
		return
	}
	logging.FromContext(ctx, logger).Error(message,
		slog.Int64("userId", userID),
		slog.Any("error", err),
	)
}
