package curation

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	st := NewRunState()
	st.AddReposted("at://did:plc:a/app.bsky.feed.post/1")
	st.AddReposted("at://did:plc:b/app.bsky.feed.post/2")
	st.PinnedRecordURI = "at://did:plc:bot/app.bsky.feed.repost/pin"
	st.SetLastRun(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(st.Save(path))

	loaded := LoadRunState(path, testLogger())
	assert.Equal(st.RepostedURIs, loaded.RepostedURIs)
	assert.Equal(st.PinnedRecordURI, loaded.PinnedRecordURI)
	assert.True(loaded.Seen("at://did:plc:a/app.bsky.feed.post/1"))
	assert.False(loaded.Seen("at://did:plc:c/app.bsky.feed.post/3"))

	when, ok := loaded.LastRun()
	assert.True(ok)
	assert.True(when.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))

	// No temp file left behind.
	_, err := os.Stat(path + ".tmp")
	assert.True(os.IsNotExist(err))
}

func TestLoadRunStateTolerant(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	missing := LoadRunState(filepath.Join(dir, "nope.json"), testLogger())
	assert.Empty(missing.RepostedURIs)
	_, ok := missing.LastRun()
	assert.False(ok)

	corrupt := filepath.Join(dir, "corrupt.json")
	assert.NoError(os.WriteFile(corrupt, []byte("{not json"), 0600))
	st := LoadRunState(corrupt, testLogger())
	assert.Empty(st.RepostedURIs)
	assert.False(st.Seen("anything"))

	empty := filepath.Join(dir, "empty.json")
	assert.NoError(os.WriteFile(empty, []byte("  \n"), 0600))
	st = LoadRunState(empty, testLogger())
	assert.Empty(st.RepostedURIs)
}

func TestRunStateAddRepostedDedupes(t *testing.T) {
	assert := assert.New(t)
	st := NewRunState()
	st.AddReposted("at://did:plc:a/app.bsky.feed.post/1")
	st.AddReposted("at://did:plc:a/app.bsky.feed.post/1")
	assert.Len(st.RepostedURIs, 1)
}

func TestRunStateTrimEvictsOldestFirst(t *testing.T) {
	assert := assert.New(t)
	st := NewRunState()
	for i := 0; i < 10; i++ {
		st.AddReposted(fmt.Sprintf("at://did:plc:a/app.bsky.feed.post/%d", i))
	}

	st.Trim(4)
	assert.Len(st.RepostedURIs, 4)
	assert.Equal("at://did:plc:a/app.bsky.feed.post/6", st.RepostedURIs[0])
	assert.False(st.Seen("at://did:plc:a/app.bsky.feed.post/5"))
	assert.True(st.Seen("at://did:plc:a/app.bsky.feed.post/9"))

	// Zero disables trimming rather than emptying the history.
	st.Trim(0)
	assert.Len(st.RepostedURIs, 4)
}

func TestRunStateLastRunBadValue(t *testing.T) {
	assert := assert.New(t)
	st := NewRunState()
	st.LastRunISO = "yesterday-ish"
	_, ok := st.LastRun()
	assert.False(ok)
}
