package schedule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
)

// NewRunsHandler returns an HTTP handler exposing the run log via GET
// /api/runs. Supported filters: start and end (RFC 3339), outcome,
// meeting_id and limit. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewRunsHandler(store runlog.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		v := r.URL.Query()
		q := runlog.Query{
			Outcome:   model.Outcome(v.Get("outcome")),
			MeetingID: v.Get("meeting_id"),
		}
		for _, f := range []struct {
			key string
			dst *time.Time
		}{{"start", &q.Start}, {"end", &q.End}} {
			if s := v.Get(f.key); s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					http.Error(w, "invalid "+f.key, http.StatusBadRequest)
					return
				}
				*f.dst = t
			}
		}
		if s := v.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}
