package http

import (
	"log"
	"net/http"

	"github.com/securelearn/securelearn-backend/internal/catalog"
	"github.com/securelearn/securelearn-backend/internal/progress"
	"github.com/securelearn/securelearn-backend/internal/rbac"
)

// GET /users/me/progress — dashboard roll-up. Touches the active-day
// counter first so opening the dashboard counts as activity.
func UserProgressSummaryHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if err := svc.CheckAndUpdateActiveDays(r.Context(), userID); err != nil {
			// Activity tracking is best-effort; the summary still renders.
			log.Printf("active-days update for %s: %v", userID, err)
		}
		sum, err := svc.GetUserProgressSummary(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, sum)
	}
}

// GET /learning-paths — catalog plus the caller's per-path state.
func ListLearningPathsHandler(svc *progress.Service) http.HandlerFunc {
	type pathView struct {
		catalog.Path
		Progress          int                    `json:"progress"`
		QuizProgress      int                    `json:"quiz_progress"`
		ChallengeProgress int                    `json:"challenge_progress"`
		IsComplete        bool                   `json:"is_complete"`
		Modules           []progress.ModuleState `json:"modules"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		m, err := svc.GetPathProgressMap(r.Context(), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		out := make([]pathView, 0, len(catalog.Paths()))
		for _, p := range catalog.Paths() {
			pp := m[p.ID]
			_, mods, err := svc.GetPathModuleProgress(r.Context(), userID, p.ID)
			if err != nil {
				writeErr(w, err)
				return
			}
			out = append(out, pathView{
				Path:              p,
				Progress:          pp.Progress,
				QuizProgress:      pp.QuizProgress,
				ChallengeProgress: pp.ChallengeProgress,
				IsComplete:        pp.IsComplete,
				Modules:           mods,
			})
		}
		writeJSON(w, out)
	}
}
