package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Tih000/quest/internal/user"
	sharederrors "github.com/Tih000/quest/shared/errors"
)

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := decodeBody(w, r, &input); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.users.Register(ctx, input)
	if err != nil {
		h.respondServiceError(w, r, "failed to register user", err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Phone) == "" {
		writeError(w, r, sharederrors.CodeBadRequest, "phone is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.users.Login(ctx, body.Phone)
	if err != nil {
		h.respondServiceError(w, r, "failed to log in", err, 0)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// verify accepts any code; SMS delivery is not wired.
func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Phone) == "" || strings.TrimSpace(body.Code) == "" {
		writeError(w, r, sharederrors.CodeBadRequest, "phone and code are required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "code verified"})
}
