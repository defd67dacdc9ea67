package httpapi

import (
	"context"
	"net/http"

	sharederrors "github.com/Tih000/quest/shared/errors"
)

func (h *handlers) generateQuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	// Bounded by the generator deadline.
	gen, err := h.quests.Generate(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, "failed to generate quest", err, userID)
		return
	}
	writeJSON(w, http.StatusCreated, gen)
}

func (h *handlers) questHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	history, err := h.quests.History(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, "failed to load quest history", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quests": history})
}

func (h *handlers) questCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.quests.Categories()})
}

func (h *handlers) getQuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}
	questID, ok := questIDParam(r)
	if !ok {
		writeError(w, r, sharederrors.CodeBadRequest, "invalid quest id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.quests.Get(ctx, userID, questID)
	if err != nil {
		h.respondServiceError(w, r, "failed to load quest", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) completeQuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}
	questID, ok := questIDParam(r)
	if !ok {
		writeError(w, r, sharederrors.CodeBadRequest, "invalid quest id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.quests.Complete(ctx, userID, questID)
	if err != nil {
		h.respondServiceError(w, r, "failed to complete quest", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"quest_id":         res.QuestID,
		"points_earned":    res.PointsEarned,
		"new_achievements": res.NewAchievements,
	})
}

func (h *handlers) skipQuest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		writeError(w, r, sharederrors.CodeUnauthorized, "missing user ID")
		return
	}
	questID, ok := questIDParam(r)
	if !ok {
		writeError(w, r, sharederrors.CodeBadRequest, "invalid quest id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.quests.Skip(ctx, userID, questID); err != nil {
		h.respondServiceError(w, r, "failed to skip quest", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
