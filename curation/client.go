package curation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/util"
	"github.com/bluesky-social/indigo/xrpc"
)

// ErrPostNotFound marks a single-post fetch whose subject no longer exists
// (deleted, taken down, or never valid).
var ErrPostNotFound = errors.New("post not found")

// XRPCClient implements Client against a PDS over XRPC.
type XRPCClient struct {
	C *xrpc.Client
}

func NewXRPCClient(host string) *XRPCClient {
	return &XRPCClient{
		C: &xrpc.Client{
			Host:   host,
			Client: util.RobustHTTPClient(),
		},
	}
}

// Login authenticates with a bounded retry loop: a fixed attempt count with
// a fixed delay between attempts, never unbounded.
func (c *XRPCClient) Login(ctx context.Context, identifier, password string, attempts int, retryDelay time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		sess, err := comatproto.ServerCreateSession(ctx, c.C, &comatproto.ServerCreateSession_Input{
			Identifier: identifier,
			Password:   password,
		})
		if err == nil {
			c.C.Auth = &xrpc.AuthInfo{
				AccessJwt:  sess.AccessJwt,
				RefreshJwt: sess.RefreshJwt,
				Handle:     sess.Handle,
				Did:        sess.Did,
			}
			return nil
		}
		lastErr = err
		logger.Warn("login attempt failed", "attempt", i, "of", attempts, "err", err)
		if i < attempts {
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("login failed after %d attempts: %w", attempts, lastErr)
}

func (c *XRPCClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	resp, err := comatproto.IdentityResolveHandle(ctx, c.C, handle)
	if err != nil {
		return "", err
	}
	return resp.Did, nil
}

func (c *XRPCClient) GetFeed(ctx context.Context, feedURI string, limit int64) ([]*appbsky.FeedDefs_FeedViewPost, error) {
	resp, err := appbsky.FeedGetFeed(ctx, c.C, "", feedURI, limit)
	if err != nil {
		return nil, err
	}
	return resp.Feed, nil
}

func (c *XRPCClient) GetListFeed(ctx context.Context, listURI string, limit int64) ([]*appbsky.FeedDefs_FeedViewPost, error) {
	resp, err := appbsky.FeedGetListFeed(ctx, c.C, "", limit, listURI)
	if err != nil {
		return nil, err
	}
	return resp.Feed, nil
}

func (c *XRPCClient) SearchPosts(ctx context.Context, query string, limit int64) ([]*appbsky.FeedDefs_PostView, error) {
	resp, err := appbsky.FeedSearchPosts(ctx, c.C, "", "", "", "", limit, "", query, "", "latest", nil, "", "")
	if err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *XRPCClient) GetPost(ctx context.Context, uri string) (*appbsky.FeedDefs_PostView, error) {
	resp, err := appbsky.FeedGetPosts(ctx, c.C, []string{uri})
	if err != nil {
		return nil, err
	}
	if len(resp.Posts) == 0 || resp.Posts[0] == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, uri)
	}
	return resp.Posts[0], nil
}

// CreateRepost submits a repost of (uri, cid) and returns the new repost
// record's AT-URI, usable later for retraction.
func (c *XRPCClient) CreateRepost(ctx context.Context, uri, cid string) (string, error) {
	resp, err := comatproto.RepoCreateRecord(ctx, c.C, &comatproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.repost",
		Repo:       c.C.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{Val: &appbsky.FeedRepost{
			CreatedAt: syntax.DatetimeNow().String(),
			Subject:   &comatproto.RepoStrongRef{Uri: uri, Cid: cid},
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.Uri, nil
}

func (c *XRPCClient) DeleteRepost(ctx context.Context, recordURI string) error {
	aturi, err := syntax.ParseATURI(recordURI)
	if err != nil {
		return fmt.Errorf("invalid repost record uri %q: %w", recordURI, err)
	}
	_, err = comatproto.RepoDeleteRecord(ctx, c.C, &comatproto.RepoDeleteRecord_Input{
		Collection: "app.bsky.feed.repost",
		Repo:       c.C.Auth.Did,
		Rkey:       aturi.RecordKey().String(),
	})
	return err
}

func (c *XRPCClient) CreateLike(ctx context.Context, uri, cid string) error {
	_, err := comatproto.RepoCreateRecord(ctx, c.C, &comatproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.like",
		Repo:       c.C.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{Val: &appbsky.FeedLike{
			CreatedAt: syntax.DatetimeNow().String(),
			Subject:   &comatproto.RepoStrongRef{Uri: uri, Cid: cid},
		}},
	})
	return err
}
