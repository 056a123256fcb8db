package memory

import (
	"sort"

	"mistral-thing-be/internal/changefeed"
	"mistral-thing-be/internal/entity"
)

// ReconcileMessages merges a committed change into a cached message list and
// returns a new list in seq order. The input is never modified. An update
// older than the cached row is ignored so cached content never goes back.
func ReconcileMessages(rows []*entity.Message, change changefeed.Change) []*entity.Message {
	switch change.Kind {
	case changefeed.ThreadDeleted:
		return nil
	case changefeed.MessageCreated, changefeed.MessageUpdated:
	default:
		return rows
	}
	incoming := change.Message
	if incoming == nil || incoming.ThreadId != change.ThreadId {
		return rows
	}

	out := make([]*entity.Message, 0, len(rows)+1)
	replaced := false
	for _, m := range rows {
		if m.Id != incoming.Id {
			out = append(out, m)
			continue
		}
		replaced = true
		if isOlder(incoming.UpdatedAt, m.UpdatedAt) {
			out = append(out, m)
		} else {
			out = append(out, incoming)
		}
	}
	if !replaced {
		out = append(out, incoming)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// ReconcileThreads merges a committed change into a cached thread list,
// most recently updated first.
func ReconcileThreads(rows []*entity.Thread, change changefeed.Change) []*entity.Thread {
	out := make([]*entity.Thread, 0, len(rows)+1)

	switch change.Kind {
	case changefeed.ThreadDeleted:
		for _, t := range rows {
			if t.Id != change.ThreadId {
				out = append(out, t)
			}
		}
		return out
	case changefeed.ThreadUpdated:
	default:
		return rows
	}
	incoming := change.Thread
	if incoming == nil {
		return rows
	}

	replaced := false
	for _, t := range rows {
		if t.Id != incoming.Id {
			out = append(out, t)
			continue
		}
		replaced = true
		if isOlder(incoming.UpdatedAt, t.UpdatedAt) {
			out = append(out, t)
		} else {
			out = append(out, incoming)
		}
	}
	if !replaced {
		out = append(out, incoming)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return isOlder(out[j].UpdatedAt, out[i].UpdatedAt)
	})
	return out
}
