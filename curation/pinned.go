package curation

import (
	"context"
	"errors"
	"log/slog"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
)

// PostFetcher fetches a single post view by AT-URI.
type PostFetcher interface {
	GetPost(ctx context.Context, uri string) (*appbsky.FeedDefs_PostView, error)
}

// Retractor removes a previously created repost record.
type Retractor interface {
	DeleteRepost(ctx context.Context, recordURI string) error
}

// PinnedCycler recycles the configured pinned post every run: the previous
// run's repost record is retracted before a fresh one is submitted, keeping
// the pinned post the account's most recent repost.
type PinnedCycler struct {
	Fetcher   PostFetcher
	Retractor Retractor
	Filter    *Filter
	Logger    *slog.Logger
}

// RetractPrevious deletes the prior run's repost record, clearing the
// stored handle on success. Failure is non-fatal: a stale handle heals
// itself next run, since the new repost's record URI is stored regardless.
func (pc *PinnedCycler) RetractPrevious(ctx context.Context, st *RunState) {
	if st.PinnedRecordURI == "" {
		return
	}
	if err := pc.Retractor.DeleteRepost(ctx, st.PinnedRecordURI); err != nil {
		pc.logger().Warn("pinned repost retraction failed", "record", st.PinnedRecordURI, "err", err)
		return
	}
	pc.logger().Info("retracted previous pinned repost", "record", st.PinnedRecordURI)
	st.PinnedRecordURI = ""
}

// Resolve fetches and validates the pinned post, returning nil when it is
// missing or fails the content rules; both outcomes only skip the pinned
// slot. Validation runs with no provenance, so the reshare and required-tag
// rules do not apply here.
func (pc *PinnedCycler) Resolve(ctx context.Context, uri string) *appbsky.FeedDefs_PostView {
	post, err := pc.Fetcher.GetPost(ctx, uri)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			pc.logger().Warn("pinned post not found", "uri", uri)
		} else {
			pc.logger().Warn("pinned post fetch failed", "uri", uri, "err", err)
		}
		return nil
	}
	if post == nil || post.Uri == "" || post.Cid == "" {
		pc.logger().Warn("pinned post missing uri or cid", "uri", uri)
		return nil
	}
	if ok, reason := pc.Filter.Allow(post, nil); !ok {
		pc.logger().Warn("pinned post rejected", "uri", uri, "reason", reason)
		return nil
	}
	return post
}

func (pc *PinnedCycler) logger() *slog.Logger {
	if pc.Logger != nil {
		return pc.Logger
	}
	return slog.Default()
}
