package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// GCConfig tunes the orphan sweep.
type GCConfig struct {
	// MinBuildsBetweenGC is how many committed builds must accumulate
	// before ShouldRunGC reports a sweep as due.
	MinBuildsBetweenGC int
	// DryRun counts orphans without deleting anything.
	DryRun bool
}

func DefaultGCConfig() GCConfig {
	return GCConfig{MinBuildsBetweenGC: 10}
}

// GCResult reports what a sweep visited and removed.
type GCResult struct {
	Scanned    int
	Live       int
	Deleted    int
	BytesFreed int64
	Took       time.Duration
}

// ShouldRunGC reports whether enough builds have committed since the
// last sweep to make another one worthwhile.
func (m *Manager) ShouldRunGC(cfg GCConfig) (bool, string) {
	n := m.statsCounter(KeyBuildsSinceGC)
	if n < cfg.MinBuildsBetweenGC {
		return false, fmt.Sprintf("%d of %d builds since the last sweep", n, cfg.MinBuildsBetweenGC)
	}
	return true, fmt.Sprintf("%d builds since the last sweep", n)
}

// statsCounter reads a uint32 counter from the stats bucket; a missing
// key reads as zero.
func (m *Manager) statsCounter(key string) int {
	var n int
	_ = m.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket([]byte(BucketStats)).Get([]byte(key)); raw != nil {
			n = int(binary.BigEndian.Uint32(raw))
		}
		return nil
	})
	return n
}

// RunGC removes store blobs and card images that no committed record
// references. Marking completes before sweeping starts and builds never
// write during their GC phase, so a record cannot end up pointing at a
// blob the sweep removed.
func (m *Manager) RunGC(cfg GCConfig) (*GCResult, error) {
	start := time.Now()

	live, err := m.markLive()
	if err != nil {
		return nil, err
	}

	res := &GCResult{Live: len(live.html) + len(live.cards)}
	if err := m.sweepStore(live.html, cfg.DryRun, res); err != nil {
		return nil, err
	}
	if err := m.sweepCards(live.cards, cfg.DryRun, res); err != nil {
		return nil, err
	}
	if !cfg.DryRun {
		m.stampSweep()
	}

	res.Took = time.Since(start)
	return res, nil
}

// liveRefs holds every hash some committed record still points at.
type liveRefs struct {
	html  map[string]struct{}
	cards map[string]struct{}
}

func (m *Manager) markLive() (liveRefs, error) {
	live := liveRefs{
		html:  map[string]struct{}{},
		cards: map[string]struct{}{},
	}
	err := m.db.View(func(tx *bolt.Tx) error {
		pb := tx.Bucket([]byte(BucketPosts))
		if err := pb.ForEach(func(_, v []byte) error {
			var rec PostMeta
			// An unreadable record carries no references; Verify is
			// where corruption gets reported.
			if Decode(v, &rec) == nil && rec.HTMLHash != "" {
				live.html[rec.HTMLHash] = struct{}{}
			}
			return nil
		}); err != nil {
			return err
		}
		cb := tx.Bucket([]byte(BucketSocialCard))
		return cb.ForEach(func(_, v []byte) error {
			live.cards[string(v)] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return live, fmt.Errorf("mark live hashes: %w", err)
	}
	return live, nil
}

func (m *Manager) sweepStore(live map[string]struct{}, dryRun bool, res *GCResult) error {
	blobs, err := m.store.Hashes(CategoryHTML)
	if err != nil {
		return fmt.Errorf("list store blobs: %w", err)
	}
	for _, hash := range blobs {
		res.Scanned++
		if _, keep := live[hash]; keep {
			continue
		}
		size := m.store.onDiskSize(CategoryHTML, hash)
		if !dryRun {
			if err := m.store.Delete(CategoryHTML, hash); err != nil {
				continue
			}
		}
		res.Deleted++
		res.BytesFreed += size
	}
	return nil
}

func (m *Manager) sweepCards(live map[string]struct{}, dryRun bool, res *GCResult) error {
	dir := m.SocialCardDir()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list card images: %w", err)
	}
	for _, ent := range entries {
		hash, ok := strings.CutSuffix(ent.Name(), ".webp")
		if !ok || ent.IsDir() {
			continue
		}
		res.Scanned++
		if _, keep := live[hash]; keep {
			continue
		}
		var size int64
		if info, err := ent.Info(); err == nil {
			size = info.Size()
		}
		if !dryRun {
			if err := os.Remove(filepath.Join(dir, ent.Name())); err != nil {
				continue
			}
		}
		res.Deleted++
		res.BytesFreed += size
	}
	return nil
}

// stampSweep zeroes the build counter and records the sweep time.
func (m *Manager) stampSweep() {
	_ = m.db.Update(func(tx *bolt.Tx) error {
		sb := tx.Bucket([]byte(BucketStats))
		if err := sb.Put([]byte(KeyBuildsSinceGC), binary.BigEndian.AppendUint32(nil, 0)); err != nil {
			return err
		}
		stamp := binary.BigEndian.AppendUint64(nil, uint64(time.Now().Unix()))
		return sb.Put([]byte(KeyLastGC), stamp)
	})
}

// onDiskSize totals the bytes a blob occupies across its raw and
// compressed forms.
func (s *Store) onDiskSize(category, hash string) int64 {
	var sum int64
	for _, ext := range blobExts {
		if info, err := os.Stat(s.blobPath(category, hash, ext)); err == nil {
			sum += info.Size()
		}
	}
	return sum
}

// dirSize totals regular files under dir; a missing directory counts
// as zero.
func dirSize(dir string) int64 {
	var sum int64
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			if info, ierr := d.Info(); ierr == nil {
				sum += info.Size()
			}
		}
		return nil
	})
	return sum
}

// Verify cross-checks every post record against the path index and the
// content store, returning one line per inconsistency.
func (m *Manager) Verify() ([]string, error) {
	var problems []string
	flag := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	err := m.db.View(func(tx *bolt.Tx) error {
		byPath := tx.Bucket([]byte(BucketPaths))
		return tx.Bucket([]byte(BucketPosts)).ForEach(func(k, v []byte) error {
			var rec PostMeta
			if err := Decode(v, &rec); err != nil {
				flag("corrupt post record: %s", k)
				return nil
			}
			switch mapped := byPath.Get([]byte(rec.Path)); {
			case mapped == nil:
				flag("no path mapping for %s (post %s)", rec.Path, rec.PostID)
			case string(mapped) != rec.PostID:
				flag("path %s maps to %s, record says %s", rec.Path, mapped, rec.PostID)
			}
			if rec.HTMLHash != "" && !m.store.Exists(CategoryHTML, rec.HTMLHash) {
				flag("post %s references missing blob %s", rec.PostID, rec.HTMLHash)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return problems, nil
}

// Clear wipes the cache directory and reopens an empty cache in place,
// leaving the manager usable.
func (m *Manager) Clear() error {
	_ = m.db.Close()
	if err := os.RemoveAll(m.root); err != nil {
		return err
	}
	fresh, err := Open(m.root, false)
	if err != nil {
		return err
	}
	m.db, m.store = fresh.db, fresh.store
	return nil
}
