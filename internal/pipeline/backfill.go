package pipeline

import (
	"strings"

	"github.com/rcliao/expense-assistant/internal/model"
	"github.com/rcliao/expense-assistant/internal/ops"
	"github.com/rcliao/expense-assistant/internal/session"
	"github.com/rcliao/expense-assistant/internal/textsim"
)

var backfillKeys = []string{"category", "month"}

// Backfill fills a missing category or month from the most similar past
// query in mem. Supplied arguments are never replaced, and when no past
// query scores above the memory threshold the intent comes back with its
// gaps intact. The input intent is not modified.
func (p *Pipeline) Backfill(query string, intent model.Intent, mem session.Memory) model.Intent {
	out := model.Intent{Operation: intent.Operation, Arguments: intent.Arguments.Clone()}

	op, known := ops.Lookup(intent.Operation)
	var missing []string
	for _, k := range backfillKeys {
		if out.Arguments.Has(k) {
			continue
		}
		if known && !ops.Declares(op, k) {
			continue
		}
		missing = append(missing, k)
	}
	if len(missing) == 0 {
		return out
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var best *model.MemoryEntry
	bestScore := p.cfg.MemoryThreshold
	for _, e := range mem.Recent(p.cfg.MemoryWindow) {
		if e.Operation == string(ops.SummarizeMemory) {
			continue
		}
		if score := textsim.Ratio(q, strings.ToLower(e.Query)); score > bestScore {
			entry := e
			best, bestScore = &entry, score
		}
	}
	if best == nil {
		return out
	}

	prior := best.Arguments.Clone()
	for _, k := range missing {
		if prior.Has(k) {
			out.Arguments[k] = prior[k]
		}
	}
	if p.log != nil {
		p.log.Debug("pipeline: backfilled arguments", "query", query, "from", best.Query, "score", bestScore)
	}
	return out
}
