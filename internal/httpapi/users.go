package httpapi

import (
	"context"
	"net/http"

	"github.com/Tih000/quest/internal/user"
	sharederrors "github.com/Tih000/quest/shared/errors"
)

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.users.GetProfile(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, "failed to load profile", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	var input user.UpdateInput
	if err := decodeBody(w, r, &input); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, err := h.users.UpdateProfile(ctx, userID, input)
	if err != nil {
		h.respondServiceError(w, r, "failed to update profile", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.users.Stats(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, "failed to load stats", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
