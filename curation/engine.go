package curation

import (
	"context"
	"log/slog"
	"time"
)

// Client is the full remote surface one run drives. *XRPCClient implements
// it; tests substitute fakes.
type Client interface {
	HandleResolver
	FeedLister
	PostSearcher
	PostFetcher
	Retractor
	CreateRepost(ctx context.Context, uri, cid string) (string, error)
	CreateLike(ctx context.Context, uri, cid string) error
}

// RunSummary is the user-visible outcome of one pass.
type RunSummary struct {
	Queued      int
	Reposted    int
	Failed      int
	TrackedURIs int
}

// Engine performs one bounded curation pass: window selection, source
// collection, aggregation, queue construction, pinned-post cycling, and the
// paced repost loop. Everything is run-scoped and single-writer; sources
// are fetched strictly in configuration order so duplicate collapse stays
// deterministic.
type Engine struct {
	Client Client
	Config *Config
	Logger *slog.Logger

	// Now and Sleep exist so tests can pin the clock and skip pacing.
	Now   func() time.Time
	Sleep func(time.Duration)
}

func NewEngine(client Client, cfg *Config, logger *slog.Logger) *Engine {
	return &Engine{
		Client: client,
		Config: cfg,
		Logger: logger,
		Now:    time.Now,
		Sleep:  time.Sleep,
	}
}

// RunOnce executes one pass, mutating st as items succeed. The caller
// persists st exactly once afterwards; nothing here touches disk.
func (e *Engine) RunOnce(ctx context.Context, st *RunState) (*RunSummary, error) {
	cfg := e.Config
	logger := e.logger()

	now := e.Now().UTC()
	lastRun, haveLastRun := st.LastRun()
	window := ComputeWindow(now, lastRun, haveLastRun, cfg.Overlap(), cfg.FallbackHorizon())
	logger.Info("run window",
		"start", window.Start.Format(time.RFC3339),
		"end", window.End.Format(time.RFC3339),
		"blocked_users", len(cfg.BlockedUsers),
		"feeds", len(cfg.Feeds), "lists", len(cfg.Lists), "tags", len(cfg.Hashtags))

	norm := &Normalizer{Resolver: e.Client}
	filter := NewFilter(cfg.RequiredTag, cfg.BlocklistSet())

	var sources []Source
	for _, raw := range cfg.Feeds {
		uri, err := norm.NormalizeFeedURI(ctx, raw)
		if err != nil {
			logger.Warn("skipping feed", "ref", raw, "err", err)
			continue
		}
		sources = append(sources, &FeedSource{Client: e.Client, URI: uri, Limit: cfg.FetchLimitPerFeed})
	}
	for _, raw := range cfg.Lists {
		uri, err := norm.NormalizeListURI(ctx, raw)
		if err != nil {
			logger.Warn("skipping list", "ref", raw, "err", err)
			continue
		}
		sources = append(sources, &ListSource{Client: e.Client, URI: uri, Limit: cfg.FetchLimitPerList})
	}
	for _, tag := range cfg.Hashtags {
		sources = append(sources, &TagSource{Client: e.Client, Tag: tag, Limit: cfg.SearchLimitPerTag})
	}

	pinnedURI := ""
	if cfg.SinglePostURI != "" {
		uri, err := norm.NormalizePostURI(ctx, cfg.SinglePostURI)
		if err != nil {
			logger.Warn("skipping pinned post", "ref", cfg.SinglePostURI, "err", err)
		} else {
			pinnedURI = uri
		}
	}

	cycler := &PinnedCycler{Fetcher: e.Client, Retractor: e.Client, Filter: filter, Logger: logger}
	cycler.RetractPrevious(ctx, st)

	var collected []Candidate
	for _, src := range sources {
		items, err := src.Fetch(ctx)
		if err != nil {
			logger.Warn("source fetch failed", "source", src.Name(), "err", err)
			continue
		}
		collected = append(collected, items...)
	}

	agg := &Aggregator{Window: window, Filter: filter, Seen: st.Seen, Logger: logger}
	candidates := agg.Collapse(collected)

	qb := &QueueBuilder{
		TotalCap:      cfg.MaxTotalPerRun,
		PerAuthorCap:  cfg.MaxPerAuthorPerRun,
		ReservePinned: pinnedURI != "",
	}
	queue := qb.Build(candidates)

	if pinnedURI != "" {
		if pinned := cycler.Resolve(ctx, pinnedURI); pinned != nil {
			queue = InjectPinned(queue, pinned, cfg.MaxTotalPerRun)
		}
	}
	logger.Info("queue built", "size", len(queue), "max_total", cfg.MaxTotalPerRun)

	summary := &RunSummary{Queued: len(queue)}
	for i, post := range queue {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		recordURI, err := e.Client.CreateRepost(ctx, post.Uri, post.Cid)
		if err != nil {
			summary.Failed++
			logger.Warn("repost failed", "n", i+1, "uri", post.Uri, "err", err)
		} else {
			summary.Reposted++
			var handle string
			if post.Author != nil {
				handle = post.Author.Handle
			}
			logger.Info("reposted", "n", i+1, "uri", post.Uri, "author", handle)
			if pinnedURI != "" && post.Uri == pinnedURI {
				st.PinnedRecordURI = recordURI
			} else {
				st.AddReposted(post.Uri)
			}
			if cfg.LikeOnRepost {
				if err := e.Client.CreateLike(ctx, post.Uri, post.Cid); err != nil {
					logger.Warn("like failed", "uri", post.Uri, "err", err)
				}
			}
		}
		// Pacing applies after every attempt, including failures.
		e.sleep(cfg.Delay())
	}

	st.Trim(cfg.StateMaxURIs)
	st.SetLastRun(window.End)
	summary.TrackedURIs = len(st.RepostedURIs)

	logger.Info("run complete",
		"queued", summary.Queued,
		"reposted", summary.Reposted,
		"failed", summary.Failed,
		"tracked", summary.TrackedURIs)
	return summary, nil
}

func (e *Engine) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if e.Sleep != nil {
		e.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
