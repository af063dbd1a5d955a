package curation

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunState is the durable record carried between runs: the previous run's
// end time, the bounded set of already-reposted post URIs, and the record
// URI of the outstanding pinned repost. The pinned post's own URI is kept
// out of RepostedURIs since that post is intentionally recycled every run.
type RunState struct {
	LastRunISO      string   `json:"last_run_iso"`
	RepostedURIs    []string `json:"reposted_uris"`
	PinnedRecordURI string   `json:"single_repost_record_uri"`

	seen map[string]bool
}

func NewRunState() *RunState {
	return &RunState{seen: make(map[string]bool)}
}

// LoadRunState reads the state document at path. Missing, empty, or corrupt
// files yield a fresh zero state rather than an error; losing history is
// recoverable, crashing on startup is not.
func LoadRunState(path string, logger *slog.Logger) *RunState {
	if logger == nil {
		logger = slog.Default()
	}
	st := NewRunState()
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read run state, starting fresh", "path", path, "err", err)
		}
		return st
	}
	if strings.TrimSpace(string(b)) == "" {
		return st
	}
	if err := json.Unmarshal(b, st); err != nil {
		logger.Warn("could not parse run state, starting fresh", "path", path, "err", err)
		return NewRunState()
	}
	st.reindex()
	return st
}

func (s *RunState) reindex() {
	s.seen = make(map[string]bool, len(s.RepostedURIs))
	for _, u := range s.RepostedURIs {
		s.seen[u] = true
	}
}

// Seen reports whether uri was reposted on a previous run.
func (s *RunState) Seen(uri string) bool {
	return s.seen[uri]
}

func (s *RunState) AddReposted(uri string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[uri] {
		return
	}
	s.seen[uri] = true
	s.RepostedURIs = append(s.RepostedURIs, uri)
}

// Trim evicts the oldest tracked URIs once the set exceeds max. URIs are
// kept in insertion order, so the front of the slice is the oldest.
func (s *RunState) Trim(max int) {
	if max <= 0 || len(s.RepostedURIs) <= max {
		return
	}
	evicted := s.RepostedURIs[:len(s.RepostedURIs)-max]
	for _, u := range evicted {
		delete(s.seen, u)
	}
	s.RepostedURIs = append([]string(nil), s.RepostedURIs[len(s.RepostedURIs)-max:]...)
}

func (s *RunState) LastRun() (time.Time, bool) {
	raw := strings.TrimSpace(s.LastRunISO)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *RunState) SetLastRun(t time.Time) {
	s.LastRunISO = t.UTC().Format(time.RFC3339)
}

// Save persists the state via write-temp-then-rename, so a crash mid-write
// leaves the previous run's document intact.
func (s *RunState) Save(path string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
