package curation

import (
	"strings"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/automod/keyword"
)

// Provenance carries per-item metadata that only feed and list sources can
// supply. Tag-search and single-post fetches cannot detect reshares, so
// their candidates carry no provenance at all; rules conditioned on
// provenance are inert for them.
type Provenance struct {
	Reshared bool
}

// Candidate pairs a raw post with its optional provenance.
type Candidate struct {
	Post    *appbsky.FeedDefs_PostView
	Context *Provenance
}

// Filter decides whether a post is eligible for reposting. Checks are
// ordered cheapest-first and short-circuit on the first failure.
type Filter struct {
	// requiredTag is the slugified opt-in hashtag; empty disables the rule.
	requiredTag string
	// blocklist holds lower-cased author DIDs and handles.
	blocklist map[string]bool
}

func NewFilter(requiredTag string, blocklist map[string]bool) *Filter {
	return &Filter{
		requiredTag: keyword.Slugify(requiredTag),
		blocklist:   blocklist,
	}
}

// Allow reports whether the post passes every content rule, along with the
// name of the first failed rule for logging.
func (f *Filter) Allow(post *appbsky.FeedDefs_PostView, ctx *Provenance) (bool, string) {
	if ctx != nil && ctx.Reshared {
		return false, "reshare"
	}
	if rec := PostRecord(post); rec != nil && rec.Reply != nil {
		return false, "reply"
	}
	// The required tag only applies when provenance exists: feed/list posts
	// must opt in explicitly, while search results already matched a query.
	if ctx != nil && f.requiredTag != "" && !postHasTag(post, f.requiredTag) {
		return false, "missing required tag"
	}
	if !embedHasMedia(post) {
		return false, "no media embed"
	}
	if f.Blocked(post.Author) {
		return false, "blocked author"
	}
	return true, ""
}

// Blocked reports whether the author's DID or handle is blocklisted.
func (f *Filter) Blocked(author *appbsky.ActorDefs_ProfileViewBasic) bool {
	if author == nil || len(f.blocklist) == 0 {
		return false
	}
	return f.blocklist[strings.ToLower(author.Did)] || f.blocklist[strings.ToLower(author.Handle)]
}

// postHasTag matches the tag as a whole "#tag" token of the post text, or
// as a structured tag annotation (richtext facet or record tags).
func postHasTag(post *appbsky.FeedDefs_PostView, slug string) bool {
	rec := PostRecord(post)
	if rec == nil {
		return false
	}
	if keyword.TokenInSet("#"+slug, keyword.TokenizeTextSkippingCensorChars(rec.Text)) {
		return true
	}
	for _, t := range rec.Tags {
		if keyword.Slugify(t) == slug {
			return true
		}
	}
	for _, facet := range rec.Facets {
		for _, feat := range facet.Features {
			if feat.RichtextFacet_Tag != nil && keyword.Slugify(feat.RichtextFacet_Tag.Tag) == slug {
				return true
			}
		}
	}
	return false
}

// embedHasMedia accepts only image embeds (non-empty), video embeds, and
// quote-with-media embeds whose media part is non-empty images or video.
// Text-only posts, link cards, and plain quotes are rejected.
func embedHasMedia(post *appbsky.FeedDefs_PostView) bool {
	e := post.Embed
	if e == nil {
		return false
	}
	if e.EmbedImages_View != nil {
		return len(e.EmbedImages_View.Images) > 0
	}
	if e.EmbedVideo_View != nil {
		return true
	}
	if e.EmbedRecordWithMedia_View != nil {
		media := e.EmbedRecordWithMedia_View.Media
		if media == nil {
			return false
		}
		if media.EmbedImages_View != nil {
			return len(media.EmbedImages_View.Images) > 0
		}
		return media.EmbedVideo_View != nil
	}
	return false
}

// PostRecord decodes the post's underlying feed.post record, or nil when
// absent or of an unexpected type.
func PostRecord(post *appbsky.FeedDefs_PostView) *appbsky.FeedPost {
	if post == nil || post.Record == nil {
		return nil
	}
	rec, ok := post.Record.Val.(*appbsky.FeedPost)
	if !ok {
		return nil
	}
	return rec
}
