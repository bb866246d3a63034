package http

import (
	"encoding/json"
	"net/http"

	"github.com/securelearn/securelearn-backend/internal/progress"
	"github.com/securelearn/securelearn-backend/internal/rbac"
)

// POST /modules/complete — direct completion upsert for flows that
// compute their own score (scenario and multi-item challenge screens).
func CompleteModuleHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModuleID string `json:"module_id"`
			Score    *int   `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ModuleID == "" || req.Score == nil {
			http.Error(w, "module_id and score required", http.StatusBadRequest)
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		res, err := svc.UpdateModuleProgress(r.Context(), userID, req.ModuleID, *req.Score)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}
