package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/securelearn/securelearn-backend/internal/catalog"
	"github.com/securelearn/securelearn-backend/internal/progress"
	"github.com/securelearn/securelearn-backend/internal/rbac"
)

// GET /progress/quizzes?type=phishing
func QuizProgressHandler(svc *progress.Service) http.HandlerFunc {
	return categoryProgress(svc, catalog.KindQuiz)
}

// GET /progress/challenges?type=phishing
func ChallengeProgressHandler(svc *progress.Service) http.HandlerFunc {
	return categoryProgress(svc, catalog.KindChallenge)
}

func categoryProgress(svc *progress.Service, kind catalog.ModuleKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ := strings.TrimSpace(r.URL.Query().Get("type"))
		if typ == "" {
			http.Error(w, "type is required", http.StatusBadRequest)
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		st, err := svc.GetCategoryProgress(r.Context(), userID, kind, typ)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, st)
	}
}

// GET /progress/scenarios?type=social — completed scenario ids only; the
// scenario screens track correctness client-side.
func ScenarioProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ := strings.TrimSpace(r.URL.Query().Get("type"))
		if typ == "" {
			http.Error(w, "type is required", http.StatusBadRequest)
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		st, err := svc.GetCategoryProgress(r.Context(), userID, catalog.KindChallenge, typ)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{
			"success":                true,
			"completed_scenario_ids": st.CompletedItemIDs,
		})
	}
}

// GET /learning-paths/progress — weighted summary map, path id -> progress.
func PathProgressMapHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		m, err := svc.GetPathProgressMap(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, m)
	}
}

// GET /learning-paths/{pathID}/modules/progress — simple-average view for
// the single-path module screen, plus stored completion flags.
func PathModuleProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathID := chi.URLParam(r, "pathID")
		userID := rbac.SubjectFromContext(r.Context())
		pp, mods, err := svc.GetPathModuleProgress(r.Context(), userID, pathID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{
			"progress":           pp.Progress,
			"quiz_progress":      pp.QuizProgress,
			"challenge_progress": pp.ChallengeProgress,
			"is_complete":        pp.IsComplete,
			"modules":            mods,
		})
	}
}
