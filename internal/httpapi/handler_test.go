package httpapi

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Tih000/quest/internal/achievement"
	"github.com/Tih000/quest/internal/docstore"
	"github.com/Tih000/quest/internal/quest"
	"github.com/Tih000/quest/internal/user"
	"github.com/Tih000/quest/shared/auth"
	sharederrors "github.com/Tih000/quest/shared/errors"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewMemory()

	verifier, issuer, err := auth.New(auth.Config{Mode: auth.ModeNoop})
	if err != nil {
		t.Fatalf("auth.New returned error: %v", err)
	}

	questRepo := quest.NewDocumentRepository(store)
	evaluator := achievement.NewEvaluator(achievement.NewDocumentRepository(store), questRepo, logger)
	if err := evaluator.Seed(t.Context()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	users, err := user.NewService(user.Deps{
		Repo:         user.NewDocumentRepository(store),
		Quests:       questRepo,
		Achievements: evaluator,
		Tokens:       issuer,
		Logger:       logger,
	})
	if err != nil {
		t.Fatalf("user.NewService returned error: %v", err)
	}
	quests, err := quest.NewService(questRepo, quest.NewGenerator(nil, quest.DefaultGeneratorConfig(), logger), users, evaluator, logger)
	if err != nil {
		t.Fatalf("quest.NewService returned error: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, Config{Users: users, Quests: quests, Verifier: verifier, Logger: logger})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func register(t *testing.T, h http.Handler, phone, username string) user.AuthResult {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"phone":     phone,
		"username":  username,
		"city":      "Berlin",
		"interests": []string{"coffee"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[user.AuthResult](t, rec)
}

func TestQuestFlow(t *testing.T) {
	h := newTestRouter(t)
	acct := register(t, h, "+79990001122", "@explorer")
	if acct.Token != strconv.FormatInt(acct.User.ID, 10) {
		t.Fatalf("expected noop token to be the user id, got %q", acct.Token)
	}

	rec := do(t, h, http.MethodPost, "/v1/quests/generate", acct.Token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	gen := decode[quest.Generated](t, rec)
	if gen.ID == 0 || gen.Status != quest.StatusAssigned || gen.Source != quest.SourceFallback {
		t.Fatalf("unexpected generated quest %+v", gen)
	}
	questPath := "/v1/quests/" + strconv.FormatInt(gen.ID, 10)

	rec = do(t, h, http.MethodPost, questPath+"/complete", acct.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	completed := decode[struct {
		Success         bool               `json:"success"`
		PointsEarned    int                `json:"points_earned"`
		NewAchievements []achievement.Rule `json:"new_achievements"`
	}](t, rec)
	if !completed.Success || completed.PointsEarned != quest.CompletionPoints || completed.NewAchievements == nil {
		t.Fatalf("unexpected completion %+v", completed)
	}

	rec = do(t, h, http.MethodPost, questPath+"/complete", acct.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated completion, got %d", rec.Code)
	}
	if env := decode[sharederrors.ErrorResponse](t, rec); env.Code != sharederrors.CodeNotFound {
		t.Fatalf("unexpected error envelope %+v", env)
	}

	rec = do(t, h, http.MethodGet, "/v1/quests/history", acct.Token, nil)
	history := decode[struct {
		Quests []quest.View `json:"quests"`
	}](t, rec)
	if len(history.Quests) != 1 || history.Quests[0].Status != quest.StatusCompleted {
		t.Fatalf("unexpected history %+v", history)
	}

	rec = do(t, h, http.MethodGet, "/v1/users/stats", acct.Token, nil)
	stats := decode[user.StatsResponse](t, rec)
	if stats.Total != 1 || stats.Completed != 1 || stats.TotalPoints != quest.CompletionPoints {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = do(t, h, http.MethodGet, "/v1/users/me", acct.Token, nil)
	profile := decode[user.ProfileResponse](t, rec)
	if profile.User == nil || profile.User.City != "Berlin" || profile.Stats.CompletedQuests != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestSkipEndpoint(t *testing.T) {
	h := newTestRouter(t)
	acct := register(t, h, "+79990001122", "@explorer")

	gen := decode[quest.Generated](t, do(t, h, http.MethodPost, "/v1/quests/generate", acct.Token, nil))
	path := "/v1/quests/" + strconv.FormatInt(gen.ID, 10) + "/skip"

	if rec := do(t, h, http.MethodPost, path, acct.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, path, acct.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when skipping twice, got %d", rec.Code)
	}
}

func TestAuthEndpoints(t *testing.T) {
	h := newTestRouter(t)
	register(t, h, "+79990001122", "@explorer")

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"duplicate phone", "/v1/auth/register", map[string]any{"phone": "+79990001122", "username": "@other"}, http.StatusConflict},
		{"duplicate username", "/v1/auth/register", map[string]any{"phone": "+79990003344", "username": "@Explorer"}, http.StatusConflict},
		{"invalid phone", "/v1/auth/register", map[string]any{"phone": "12", "username": "@fresh"}, http.StatusBadRequest},
		{"unknown field", "/v1/auth/register", map[string]any{"phone": "+79990005566", "username": "@fresh", "role": "admin"}, http.StatusBadRequest},
		{"login", "/v1/auth/login", map[string]any{"phone": "+79990001122"}, http.StatusOK},
		{"login unknown", "/v1/auth/login", map[string]any{"phone": "+79990009999"}, http.StatusNotFound},
		{"login missing phone", "/v1/auth/login", map[string]any{}, http.StatusBadRequest},
		{"verify", "/v1/auth/verify", map[string]any{"phone": "+79990001122", "code": "1234"}, http.StatusOK},
		{"verify without code", "/v1/auth/verify", map[string]any{"phone": "+79990001122"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, "", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestProtectedRoutes(t *testing.T) {
	h := newTestRouter(t)
	acct := register(t, h, "+79990001122", "@explorer")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/v1/users/me", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/v1/users/me", "abc", nil, http.StatusUnauthorized},
		{"unknown user", http.MethodPost, "/v1/quests/generate", "999", nil, http.StatusNotFound},
		{"categories", http.MethodGet, "/v1/quests/categories", acct.Token, nil, http.StatusOK},
		{"invalid quest id", http.MethodGet, "/v1/quests/abc", acct.Token, nil, http.StatusBadRequest},
		{"missing quest", http.MethodGet, "/v1/quests/42", acct.Token, nil, http.StatusNotFound},
		{"complete missing quest", http.MethodPost, "/v1/quests/42/complete", acct.Token, nil, http.StatusNotFound},
		{"update profile", http.MethodPut, "/v1/users/me", acct.Token, map[string]any{"city": "Paris"}, http.StatusOK},
		{"update invalid age", http.MethodPut, "/v1/users/me", acct.Token, map[string]any{"age": 500}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
