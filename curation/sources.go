package curation

import (
	"context"
	"strings"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
)

// FeedLister is the slice of the client that feed and list adapters need.
type FeedLister interface {
	GetFeed(ctx context.Context, feedURI string, limit int64) ([]*appbsky.FeedDefs_FeedViewPost, error)
	GetListFeed(ctx context.Context, listURI string, limit int64) ([]*appbsky.FeedDefs_FeedViewPost, error)
}

// PostSearcher runs a post search query.
type PostSearcher interface {
	SearchPosts(ctx context.Context, query string, limit int64) ([]*appbsky.FeedDefs_PostView, error)
}

// Source is one configured content origin. Adapters that can detect
// reshares attach provenance to every candidate; the rest attach none.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

// FeedSource reads a feed generator's output.
type FeedSource struct {
	Client FeedLister
	URI    string
	Limit  int64
}

func (s *FeedSource) Name() string { return "feed:" + s.URI }

func (s *FeedSource) Fetch(ctx context.Context) ([]Candidate, error) {
	items, err := s.Client.GetFeed(ctx, s.URI, s.Limit)
	if err != nil {
		return nil, err
	}
	return feedViewCandidates(items), nil
}

// ListSource reads the combined feed of a user list.
type ListSource struct {
	Client FeedLister
	URI    string
	Limit  int64
}

func (s *ListSource) Name() string { return "list:" + s.URI }

func (s *ListSource) Fetch(ctx context.Context) ([]Candidate, error) {
	items, err := s.Client.GetListFeed(ctx, s.URI, s.Limit)
	if err != nil {
		return nil, err
	}
	return feedViewCandidates(items), nil
}

// TagSource searches recent posts for a hashtag. Search results carry no
// reshare information, so candidates are returned without provenance.
type TagSource struct {
	Client PostSearcher
	Tag    string
	Limit  int64
}

func (s *TagSource) Name() string { return "tag:" + s.Tag }

func (s *TagSource) Fetch(ctx context.Context) ([]Candidate, error) {
	q := strings.TrimSpace(s.Tag)
	if q == "" {
		return nil, nil
	}
	if !strings.HasPrefix(q, "#") {
		q = "#" + q
	}
	posts, err := s.Client.SearchPosts(ctx, q, s.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		out = append(out, Candidate{Post: p})
	}
	return out, nil
}

func feedViewCandidates(items []*appbsky.FeedDefs_FeedViewPost) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		if it == nil || it.Post == nil {
			continue
		}
		out = append(out, Candidate{
			Post: it.Post,
			Context: &Provenance{
				Reshared: it.Reason != nil && it.Reason.FeedDefs_ReasonRepost != nil,
			},
		})
	}
	return out
}
