package core

import (
	"fmt"
	"time"

	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/schema"
)

// historyRun is one merge run being recorded in the history store.
// A nil *historyRun records nothing.
type historyRun struct {
	store contract.RunStore
	id    int64
}

// beginRun opens a history run. History failures never fail the merge
// itself; they are reported and the run continues unrecorded.
func beginRun(mgr contract.StoreManager, cfg *contract.Config, start time.Time) *historyRun {
	if mgr == nil {
		return nil
	}
	store := mgr.GetRunStore()
	if store == nil {
		return nil
	}
	id, err := store.BeginRun(start, cfg.Params())
	if err != nil {
		contract.LogWarn("history begin run", err)
		return nil
	}
	return &historyRun{store: store, id: id}
}

// finish records the scores of every merged hazard and closes the run.
func (r *historyRun) finish(results []schema.HazardResult) {
	if r == nil {
		return
	}
	total := 0
	for _, res := range results {
		if res.Status != schema.MergedStatus || len(res.Scores) == 0 {
			continue
		}
		if err := r.store.RecordScores(r.id, res.Scores); err != nil {
			contract.LogWarn(fmt.Sprintf("history record %s scores", res.Hazard), err)
			continue
		}
		total += len(res.Scores)
	}
	if err := r.store.EndRun(r.id, clock.Now(), total); err != nil {
		contract.LogWarn("history end run", err)
	}
}

// abort removes a run whose merge did not reach the exposure file.
func (r *historyRun) abort() {
	if r == nil {
		return
	}
	if err := r.store.AbortRun(r.id); err != nil {
		contract.LogWarn("history abort run", err)
	}
}
