package curation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// ErrUnrecognizedRef marks a source reference that is neither an AT-URI nor
// a recognized bsky.app profile URL. Callers log and skip; never fatal.
var ErrUnrecognizedRef = errors.New("unrecognized reference")

// HandleResolver resolves a handle to a DID via the network.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// Normalizer converts operator-supplied references (AT-URIs or
// https://bsky.app/profile/<actor>/<segment>/<rkey> URLs) into canonical
// AT-URIs, resolving handle actors to DIDs as needed.
type Normalizer struct {
	Resolver HandleResolver
}

const profileURLMarker = "bsky.app/profile/"

func (n *Normalizer) NormalizeFeedURI(ctx context.Context, raw string) (string, error) {
	return n.normalize(ctx, raw, "feed", "app.bsky.feed.generator")
}

func (n *Normalizer) NormalizeListURI(ctx context.Context, raw string) (string, error) {
	return n.normalize(ctx, raw, "lists", "app.bsky.graph.list")
}

func (n *Normalizer) NormalizePostURI(ctx context.Context, raw string) (string, error) {
	return n.normalize(ctx, raw, "post", "app.bsky.feed.post")
}

func (n *Normalizer) normalize(ctx context.Context, raw, segment, collection string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", fmt.Errorf("%w: empty reference", ErrUnrecognizedRef)
	}

	if strings.HasPrefix(v, "at://") {
		aturi, err := syntax.ParseATURI(v)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrUnrecognizedRef, v)
		}
		return aturi.String(), nil
	}

	actor, rkey, ok := parseProfileURL(v, segment)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnrecognizedRef, v)
	}
	did, err := n.resolveActor(ctx, actor)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("at://%s/%s/%s", did, collection, rkey), nil
}

// parseProfileURL extracts (actor, rkey) from a bsky.app profile URL whose
// path segment matches the expected resource kind.
func parseProfileURL(v, segment string) (actor, rkey string, ok bool) {
	idx := strings.Index(strings.ToLower(v), profileURLMarker)
	if idx < 0 {
		return "", "", false
	}
	tail := v[idx+len(profileURLMarker):]
	var parts []string
	for _, p := range strings.Split(tail, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 3 || !strings.EqualFold(parts[1], segment) {
		return "", "", false
	}
	return parts[0], parts[2], true
}

func (n *Normalizer) resolveActor(ctx context.Context, actor string) (string, error) {
	actor = strings.TrimSpace(actor)
	if _, err := syntax.ParseDID(actor); err == nil {
		return actor, nil
	}
	did, err := n.Resolver.ResolveHandle(ctx, actor)
	if err != nil {
		return "", fmt.Errorf("resolving handle %q: %w", actor, err)
	}
	if did == "" {
		return "", fmt.Errorf("%w: handle %q did not resolve", ErrUnrecognizedRef, actor)
	}
	return did, nil
}

// NormalizeActorKey lower-cases a blocklist entry, accepting DIDs, handles,
// and bsky.app profile URLs. Returns "" for blank input.
func NormalizeActorKey(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if idx := strings.Index(strings.ToLower(v), profileURLMarker); idx >= 0 {
		tail := strings.Trim(v[idx+len(profileURLMarker):], "/")
		actor, _, _ := strings.Cut(tail, "/")
		v = actor
	}
	return strings.ToLower(strings.TrimSpace(v))
}
