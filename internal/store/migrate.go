package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/filex"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"golang.org/x/sync/errgroup"
)

// migrationConcurrency bounds how many files are moved in parallel.
const migrationConcurrency = 4

// migrateMu serializes migrations process-wide. A second concurrent call
// blocks until the in-flight migration finishes and then observes its
// result (an already-empty legacy root).
var migrateMu sync.Mutex

// MigrationReport lists what a migration run did, per relative path.
type MigrationReport struct {
	Moved   []string
	Skipped []string
	Failed  map[string]error
}

// Migrate moves every file under the legacy root into the current root,
// preserving relative paths. It is idempotent: when there is no legacy root
// or it is empty, the call is a no-op; when a previous run was interrupted,
// it resumes with the files still left behind. Files that fail to move stay
// in the legacy root and are reported, so no data is lost on partial
// failure.
func (r *Resolver) Migrate(ctx context.Context, log logging.Logger) (*MigrationReport, error) {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	report := &MigrationReport{Failed: make(map[string]error)}

	if r.legacyRoot == "" || !filex.Exists(r.legacyRoot) {
		return report, nil
	}
	if _, err := r.Root(); err != nil {
		return report, err
	}

	var relPaths []string
	err := filepath.WalkDir(r.legacyRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.legacyRoot, p)
		if err != nil {
			return err
		}
		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("%w: walk %s: %w", common.ErrStorage, r.legacyRoot, err)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(migrationConcurrency)

	for _, rel := range relPaths {
		rel := rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			src := filepath.Join(r.legacyRoot, rel)
			dst := filepath.Join(r.root, rel)

			if filex.Exists(dst) {
				// Already migrated by an interrupted earlier run; the legacy
				// copy is the leftover.
				err := os.Remove(src)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failed[rel] = err
					return nil
				}
				report.Skipped = append(report.Skipped, rel)
				return nil
			}

			err := filex.Move(src, dst)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[rel] = err
				return nil
			}
			report.Moved = append(report.Moved, rel)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Strings(report.Moved)
	sort.Strings(report.Skipped)

	removeEmptyDirs(r.legacyRoot)

	log.Info(ctx, "attachment migration finished",
		"moved", len(report.Moved), "skipped", len(report.Skipped), "failed", len(report.Failed))

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("%w: %d files could not be migrated", common.ErrStorage, len(report.Failed))
	}
	return report, nil
}

// removeEmptyDirs prunes now-empty directories under root, deepest first,
// including root itself when everything moved out. Best effort.
func removeEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		_ = os.Remove(d)
	}
}
