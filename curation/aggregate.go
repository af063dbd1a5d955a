package curation

import (
	"log/slog"
	"sort"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
)

// Aggregator merges raw candidates from every source into one deduplicated,
// newest-first candidate list for the run.
type Aggregator struct {
	Window Window
	Filter *Filter
	// Seen reports whether a URI was already reposted on a previous run.
	Seen   func(uri string) bool
	Logger *slog.Logger
}

// Collapse applies the admission rules in order — actionable (URI and CID
// present), in-window, not previously reposted, passes the content filter —
// and collapses duplicates by AT-URI. Later sightings of a URI silently
// replace earlier ones; duplicate sightings of the same version are
// content-identical. The result is stable-sorted newest first, so equal
// timestamps keep source-enumeration order.
func (a *Aggregator) Collapse(cands []Candidate) []*appbsky.FeedDefs_PostView {
	order := make([]string, 0, len(cands))
	byURI := make(map[string]*appbsky.FeedDefs_PostView, len(cands))

	for _, c := range cands {
		post := c.Post
		if post == nil || post.Uri == "" || post.Cid == "" {
			continue
		}
		ts, ok := PostTime(post)
		if !ok || !a.Window.Contains(ts) {
			continue
		}
		if a.Seen != nil && a.Seen(post.Uri) {
			continue
		}
		if ok, reason := a.Filter.Allow(post, c.Context); !ok {
			a.logger().Debug("candidate rejected", "uri", post.Uri, "reason", reason)
			continue
		}
		if _, dup := byURI[post.Uri]; !dup {
			order = append(order, post.Uri)
		}
		byURI[post.Uri] = post
	}

	out := make([]*appbsky.FeedDefs_PostView, 0, len(order))
	for _, uri := range order {
		out = append(out, byURI[uri])
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := PostTime(out[i])
		tj, _ := PostTime(out[j])
		return ti.After(tj)
	})
	return out
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
