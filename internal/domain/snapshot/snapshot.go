package snapshot

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/logging"
	"github.com/stacksmith-dev/stacksmith/internal/shared/paths"
	"github.com/stacksmith-dev/stacksmith/internal/shared/utils"
)

// Snapshot is the pre-install state of the paths one module touched.
type Snapshot struct {
	ModuleID string            `json:"module_id"`
	TakenAt  time.Time         `json:"taken_at"`
	Files    map[string]string `json:"files"`
	Absent   []string          `json:"absent"`
}

// Store persists snapshots as gzip-compressed JSON archives.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore creates a store rooted at dir. The directory is created on the
// first save.
func NewStore(dir string, log *logging.Logger) *Store {
	return &Store{dir: dir, log: logging.OrNop(log)}
}

// Capture records the current on-disk state of the given normalized paths
// under root.
func (s *Store) Capture(moduleID, root string, pathList []string) (*Snapshot, error) {
	snap := &Snapshot{
		ModuleID: moduleID,
		TakenAt:  time.Now().UTC(),
		Files:    make(map[string]string),
	}

	for _, p := range pathList {
		data, err := os.ReadFile(paths.OnDisk(root, p))
		switch {
		case err == nil:
			snap.Files[p] = string(data)
		case os.IsNotExist(err):
			snap.Absent = append(snap.Absent, p)
		default:
			return nil, fmt.Errorf("failed to capture %s: %w", p, err)
		}
	}
	sort.Strings(snap.Absent)

	return snap, nil
}

// Save writes the snapshot archive for its module, replacing any previous
// one.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	data, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	f, err := os.Create(s.archivePath(snap.ModuleID))
	if err != nil {
		return fmt.Errorf("failed to create snapshot archive: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize snapshot archive: %w", err)
	}
	return nil
}

// Load reads the snapshot archive for a module.
func (s *Store) Load(moduleID string) (*Snapshot, error) {
	f, err := os.Open(s.archivePath(moduleID))
	if err != nil {
		return nil, fmt.Errorf("no snapshot for module %s: %w", moduleID, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot archive for %s: %w", moduleID, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot archive for %s: %w", moduleID, err)
	}

	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", moduleID, err)
	}
	return &snap, nil
}

// Restore puts the snapshot's paths back to their captured state. It is
// best-effort: every failure becomes a warning and restoration continues
// with the remaining paths.
func (s *Store) Restore(root string, snap *Snapshot) (restored []string, warnings []string) {
	for _, p := range sortedKeys(snap.Files) {
		onDisk := paths.OnDisk(root, p)
		if err := os.MkdirAll(filepath.Dir(onDisk), 0o755); err != nil {
			warnings = append(warnings, fmt.Sprintf("restore %s: %v", p, err))
			continue
		}
		if err := os.WriteFile(onDisk, []byte(snap.Files[p]), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("restore %s: %v", p, err))
			continue
		}
		restored = append(restored, p)
	}

	for _, p := range snap.Absent {
		if err := os.Remove(paths.OnDisk(root, p)); err != nil && !os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("remove %s: %v", p, err))
			continue
		}
		restored = append(restored, p)
	}

	s.log.Info("snapshot restored",
		zap.String("module", snap.ModuleID),
		zap.Int("restored", len(restored)),
		zap.Int("warnings", len(warnings)),
	)
	return restored, warnings
}

// Remove deletes a module's snapshot archive.
func (s *Store) Remove(moduleID string) error {
	err := os.Remove(s.archivePath(moduleID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) archivePath(moduleID string) string {
	return filepath.Join(s.dir, moduleID+".json.gz")
}

// TreeHash computes a deterministic hash over the whole project tree:
// relative paths plus file contents, with the skip prefixes excluded.
// Identical trees hash identically regardless of walk order.
func TreeHash(root string, skip ...string) (string, error) {
	var mu sync.Mutex
	files := make(map[string]string)
	hasher := utils.DefaultHasher()

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		for _, prefix := range skip {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return nil
			}
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		mu.Lock()
		files[rel] = hasher.Hash(data)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", root, err)
	}

	keys := sortedKeys(files)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('\x00')
		sb.WriteString(files[k])
		sb.WriteByte('\n')
	}
	return hasher.HashString(sb.String()), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
