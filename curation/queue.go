package curation

import (
	appbsky "github.com/bluesky-social/indigo/api/bsky"
)

// QueueBuilder bounds the run's action list: a total cap, a per-author cap
// so one prolific author cannot crowd out the rest of the budget, and an
// optional reserved slot for the pinned post.
type QueueBuilder struct {
	TotalCap     int
	PerAuthorCap int
	// ReservePinned holds one slot back when a pinned post is configured.
	ReservePinned bool
}

// Build walks the priority-ordered candidates and accepts each until its
// author's quota or the effective cap is hit. Authors are keyed by DID;
// candidates with no author DID do not count against any quota.
func (qb *QueueBuilder) Build(candidates []*appbsky.FeedDefs_PostView) []*appbsky.FeedDefs_PostView {
	limit := qb.TotalCap
	if qb.ReservePinned {
		limit--
	}
	if limit < 0 {
		limit = 0
	}

	authorCount := make(map[string]int)
	queue := make([]*appbsky.FeedDefs_PostView, 0, min(limit, len(candidates)))
	for _, post := range candidates {
		if len(queue) >= limit {
			break
		}
		var author string
		if post.Author != nil {
			author = post.Author.Did
		}
		if author != "" && authorCount[author] >= qb.PerAuthorCap {
			continue
		}
		queue = append(queue, post)
		if author != "" {
			authorCount[author]++
		}
	}
	return queue
}

// InjectPinned places the pinned post at the third queue slot — a fixed
// editorial placement, independent of the post's own recency — appending
// instead when fewer than two organic posts exist, then re-truncates the
// queue to totalCap.
func InjectPinned(queue []*appbsky.FeedDefs_PostView, pinned *appbsky.FeedDefs_PostView, totalCap int) []*appbsky.FeedDefs_PostView {
	if pinned == nil || pinned.Uri == "" || pinned.Cid == "" {
		return queue
	}
	idx := 2
	if idx > len(queue) {
		idx = len(queue)
	}
	out := make([]*appbsky.FeedDefs_PostView, 0, len(queue)+1)
	out = append(out, queue[:idx]...)
	out = append(out, pinned)
	out = append(out, queue[idx:]...)
	if totalCap >= 0 && len(out) > totalCap {
		out = out[:totalCap]
	}
	return out
}
