package curation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newPost builds a post view that passes the content filter by default:
// media embed, no reply, no reshare context.
func newPost(uri, cid, did, handle string, ts time.Time, opts ...func(*appbsky.FeedDefs_PostView)) *appbsky.FeedDefs_PostView {
	post := &appbsky.FeedDefs_PostView{
		Uri:       uri,
		Cid:       cid,
		IndexedAt: ts.UTC().Format(time.RFC3339),
		Author:    &appbsky.ActorDefs_ProfileViewBasic{Did: did, Handle: handle},
		Record: &lexutil.LexiconTypeDecoder{Val: &appbsky.FeedPost{
			Text:      "morning light over the harbor",
			CreatedAt: ts.UTC().Format(time.RFC3339),
		}},
		Embed: imagesEmbed(1),
	}
	for _, opt := range opts {
		opt(post)
	}
	return post
}

func record(post *appbsky.FeedDefs_PostView) *appbsky.FeedPost {
	return post.Record.Val.(*appbsky.FeedPost)
}

func imagesEmbed(n int) *appbsky.FeedDefs_PostView_Embed {
	imgs := make([]*appbsky.EmbedImages_ViewImage, n)
	for i := range imgs {
		imgs[i] = &appbsky.EmbedImages_ViewImage{
			Thumb:    "https://cdn.example.com/thumb.jpg",
			Fullsize: "https://cdn.example.com/full.jpg",
		}
	}
	return &appbsky.FeedDefs_PostView_Embed{
		EmbedImages_View: &appbsky.EmbedImages_View{Images: imgs},
	}
}

func withText(text string) func(*appbsky.FeedDefs_PostView) {
	return func(p *appbsky.FeedDefs_PostView) { record(p).Text = text }
}

func withEmbed(e *appbsky.FeedDefs_PostView_Embed) func(*appbsky.FeedDefs_PostView) {
	return func(p *appbsky.FeedDefs_PostView) { p.Embed = e }
}

func asReply(p *appbsky.FeedDefs_PostView) {
	record(p).Reply = &appbsky.FeedPost_ReplyRef{
		Root:   &comatproto.RepoStrongRef{Uri: "at://did:plc:root/app.bsky.feed.post/r1"},
		Parent: &comatproto.RepoStrongRef{Uri: "at://did:plc:root/app.bsky.feed.post/r1"},
	}
}

func feedItem(post *appbsky.FeedDefs_PostView, reshared bool) *appbsky.FeedDefs_FeedViewPost {
	item := &appbsky.FeedDefs_FeedViewPost{Post: post}
	if reshared {
		item.Reason = &appbsky.FeedDefs_FeedViewPost_Reason{
			FeedDefs_ReasonRepost: &appbsky.FeedDefs_ReasonRepost{
				By:        &appbsky.ActorDefs_ProfileViewBasic{Did: "did:plc:booster", Handle: "booster.example.com"},
				IndexedAt: post.IndexedAt,
			},
		}
	}
	return item
}

// fakeClient implements Client entirely in memory.
type fakeClient struct {
	handles  map[string]string
	feeds    map[string][]*appbsky.FeedDefs_FeedViewPost
	lists    map[string][]*appbsky.FeedDefs_FeedViewPost
	searches map[string][]*appbsky.FeedDefs_PostView
	posts    map[string]*appbsky.FeedDefs_PostView

	feedErrs   map[string]error
	repostErrs map[string]error
	deleteErr  error

	reposted  []string
	liked     []string
	deleted   []string
	queries   []string
	repostSeq int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handles:    map[string]string{},
		feeds:      map[string][]*appbsky.FeedDefs_FeedViewPost{},
		lists:      map[string][]*appbsky.FeedDefs_FeedViewPost{},
		searches:   map[string][]*appbsky.FeedDefs_PostView{},
		posts:      map[string]*appbsky.FeedDefs_PostView{},
		feedErrs:   map[string]error{},
		repostErrs: map[string]error{},
	}
}

func (f *fakeClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	return f.handles[handle], nil
}

func (f *fakeClient) GetFeed(ctx context.Context, feedURI string, limit int64) ([]*appbsky.FeedDefs_FeedViewPost, error) {
	if err := f.feedErrs[feedURI]; err != nil {
		return nil, err
	}
	return f.feeds[feedURI], nil
}

func (f *fakeClient) GetListFeed(ctx context.Context, listURI string, limit int64) ([]*appbsky.FeedDefs_FeedViewPost, error) {
	if err := f.feedErrs[listURI]; err != nil {
		return nil, err
	}
	return f.lists[listURI], nil
}

func (f *fakeClient) SearchPosts(ctx context.Context, query string, limit int64) ([]*appbsky.FeedDefs_PostView, error) {
	f.queries = append(f.queries, query)
	return f.searches[query], nil
}

func (f *fakeClient) GetPost(ctx context.Context, uri string) (*appbsky.FeedDefs_PostView, error) {
	post, ok := f.posts[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, uri)
	}
	return post, nil
}

func (f *fakeClient) CreateRepost(ctx context.Context, uri, cid string) (string, error) {
	if err := f.repostErrs[uri]; err != nil {
		return "", err
	}
	f.repostSeq++
	f.reposted = append(f.reposted, uri)
	return fmt.Sprintf("at://did:plc:bot/app.bsky.feed.repost/rkey%d", f.repostSeq), nil
}

func (f *fakeClient) DeleteRepost(ctx context.Context, recordURI string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, recordURI)
	return nil
}

func (f *fakeClient) CreateLike(ctx context.Context, uri, cid string) error {
	f.liked = append(f.liked, uri)
	return nil
}
