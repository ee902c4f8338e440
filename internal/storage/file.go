package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "restreamctl/pkg/logx"
)

const (
	// fileCompactEvery triggers a rewrite after this many appends.
	fileCompactEvery = 1000
	// fileKeepEntries is how many trailing entries a compaction keeps.
	fileKeepEntries = 2000
)

// fileStore is a dependency-free persistence backend: one append-only
// JSON Lines file, periodically compacted down to its tail.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	path   string
	file   *os.File
	writes int
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	jsonlPath := filepath.Join(dir, base+".commands.jsonl")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(jsonlPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{log: log, path: jsonlPath, file: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileStore) AppendCommand(ctx context.Context, e CommandEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("command log closed")
	}
	if err := json.NewEncoder(s.file).Encode(e); err != nil {
		return err
	}
	s.writes++
	if s.writes%fileCompactEvery == 0 {
		if err := s.compactLocked(); err != nil {
			s.log.Debug("command log compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) RecentCommands(ctx context.Context, limit int) ([]CommandEntry, error) {
	_ = ctx
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readEntries(s.path)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// compactLocked rewrites the file keeping only the trailing entries.
func (s *fileStore) compactLocked() error {
	all, err := readEntries(s.path)
	if err != nil {
		return err
	}
	if len(all) <= fileKeepEntries {
		return nil
	}
	all = all[len(all)-fileKeepEntries:]

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, e := range all {
		if err := enc.Encode(e); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Swap the live handle over to the rewritten file.
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	_ = s.file.Close()
	nf, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		s.file = nil
		return err
	}
	s.file = nf
	return nil
}

func readEntries(path string) ([]CommandEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []CommandEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e CommandEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			// Skip torn or corrupt lines rather than failing the whole read.
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
