// Package participantkpi fills a KPI store from recorded scheduling runs.
package participantkpi

import (
	"context"

	"github.com/macmarek/scheduling-assistant/core/metrics/kpi"
	"github.com/macmarek/scheduling-assistant/core/model"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
)

// Backfill adds every scheduled run matching q to store and returns how many
// runs were new. Runs already in store are skipped, so the job can be rerun.
func Backfill(ctx context.Context, runs runlog.Store, store kpi.Store, q runlog.Query) (int, error) {
	q.Outcome = model.OutcomeScheduled
	recs, err := runs.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, r := range recs {
		if r.Schedule == nil {
			continue
		}
		ok, err := store.AddRun(r.RunID, kpi.FromSchedule(r.Schedule))
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}
