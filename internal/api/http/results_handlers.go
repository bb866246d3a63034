package http

import (
	"encoding/json"
	"net/http"

	"github.com/securelearn/securelearn-backend/internal/catalog"
	"github.com/securelearn/securelearn-backend/internal/progress"
	"github.com/securelearn/securelearn-backend/internal/rbac"
)

type submitRequest struct {
	ItemID  string `json:"item_id"`
	Type    string `json:"type"` // learning-path id, scopes the attempt
	PathID  string `json:"path_id"`
	Correct *bool  `json:"correct"`
}

func decodeSubmit(w http.ResponseWriter, r *http.Request) (submitRequest, bool) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return req, false
	}
	if req.ItemID == "" || req.Type == "" || req.Correct == nil {
		http.Error(w, "item_id, type and correct required", http.StatusBadRequest)
		return req, false
	}
	if req.PathID == "" {
		req.PathID = req.Type
	}
	return req, true
}

// POST /results/quiz — append the attempt and settle completion + XP.
func SubmitQuizResultHandler(svc *progress.Service) http.HandlerFunc {
	return submitAndSettle(svc, catalog.KindQuiz)
}

// POST /results/challenge
func SubmitChallengeResultHandler(svc *progress.Service) http.HandlerFunc {
	return submitAndSettle(svc, catalog.KindChallenge)
}

func submitAndSettle(svc *progress.Service, kind catalog.ModuleKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeSubmit(w, r)
		if !ok {
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		res, err := svc.RecordAttemptAndSettle(r.Context(), userID, req.ItemID, kind, req.Type, req.PathID, *req.Correct)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, res)
	}
}

// POST /results/question — plain append of a single quiz answer, no
// completion or XP settlement. Single-question screens use this; the full
// quiz flow posts to /results/quiz instead.
func SubmitQuestionResultHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeSubmit(w, r)
		if !ok {
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		a, err := svc.SubmitResult(r.Context(), userID, req.ItemID, catalog.KindQuiz, req.Type, *req.Correct)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, a)
	}
}

// POST /results/scenario — plain append; the scenario flow settles module
// completion itself through POST /modules/complete once all items are done.
func SubmitScenarioResultHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeSubmit(w, r)
		if !ok {
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		a, err := svc.SubmitResult(r.Context(), userID, req.ItemID, catalog.KindChallenge, req.Type, *req.Correct)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, a)
	}
}
