package curation

import (
	"time"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Window is the closed inclusion interval for one run.
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeWindow seeds the window from the previous run's end time, padded
// backwards by overlap to catch posts the AppView indexed late. First runs
// are bounded by the fallback horizon instead of pulling unbounded history.
func ComputeWindow(now, lastRun time.Time, haveLastRun bool, overlap, fallback time.Duration) Window {
	if !haveLastRun {
		return Window{Start: now.Add(-fallback), End: now}
	}
	return Window{Start: lastRun.Add(-overlap), End: now}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// PostTime resolves a post's timestamp, preferring the AppView's indexedAt
// and falling back to the record's createdAt. Posts with no parseable
// timestamp report false and are never treated as in-window.
func PostTime(post *appbsky.FeedDefs_PostView) (time.Time, bool) {
	if t, err := syntax.ParseDatetimeTime(post.IndexedAt); err == nil {
		return t, true
	}
	if rec := PostRecord(post); rec != nil {
		if dt, err := syntax.ParseDatetimeLenient(rec.CreatedAt); err == nil {
			return dt.Time(), true
		}
	}
	return time.Time{}, false
}
