package http

import (
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/mindengage-sheetgrader/internal/sync"
)

// GET /events?after=<seq>&limit=<n>
// Events after seq, oldest first.
func ListEventsHandler(events syncx.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		after, _ := strconv.ParseInt(q.Get("after"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		list, err := events.List(r.Context(), after, limit)
		if err != nil {
			writeErr(w, "list events", err)
			return
		}
		if list == nil {
			list = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
