package http

import (
	"database/sql"
	"net/http"
)

// GET /admin/overview — per-user attempt and XP totals for the admin
// dashboard. Access is gated by the rbac "admin:view" permission on the
// route; there is no identity special-casing here.
func AdminOverviewHandler(db *sql.DB) http.HandlerFunc {
	type row struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		Role       string `json:"role"`
		TotalXP    int    `json:"total_xp"`
		ActiveDays int    `json:"active_days"`
		Attempts   int    `json:"attempts"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT u.id, u.username, u.role, u.total_xp, u.active_days,
			       (SELECT COUNT(*) FROM attempts a WHERE a.user_id = u.id)
			  FROM users u
			 ORDER BY u.username ASC`)
		if err != nil {
			http.Error(w, "query users", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		out := []row{}
		for rows.Next() {
			var u row
			if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.TotalXP, &u.ActiveDays, &u.Attempts); err != nil {
				http.Error(w, "scan users", http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "read users", http.StatusInternalServerError)
			return
		}
		writeJSON(w, out)
	}
}
