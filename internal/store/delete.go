package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/filex"
)

// DeleteReport lists the paths that existed and were removed during a
// record deletion.
type DeleteReport struct {
	Removed []string
}

// DeleteRecord removes the record's metadata row, its backing file, and
// every cached rendition together. The metadata row goes first so a crash
// mid-way leaves orphaned files (regenerable or garbage-collectable) rather
// than a record pointing at nothing. File removal failures are aggregated
// into a single error alongside the report of what was removed.
func (s *Store) DeleteRecord(ctx context.Context, rec *attachment.Record) (*DeleteReport, error) {
	report := &DeleteReport{}

	if err := s.repo.Delete(ctx, rec.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return report, err
	}

	var paths []string
	if abs, err := s.resolver.AbsolutePath(rec); err == nil {
		paths = append(paths, abs)
	}
	secondary, err := s.resolver.AllSecondaryPaths(rec)
	if err != nil {
		return report, err
	}
	paths = append(paths, secondary...)

	removed, err := removeAll(paths)
	report.Removed = removed
	if err != nil {
		return report, err
	}

	s.log.Info(ctx, "attachment deleted", "attachment_id", rec.ID, "files_removed", len(report.Removed))
	return report, nil
}

// DeleteSecondaryFiles removes every cached rendition of the record,
// leaving the backing file and metadata row alone. Returns the paths that
// existed and were removed; partial failures surface as one aggregate
// error rather than being silently ignored.
func (s *Store) DeleteSecondaryFiles(rec *attachment.Record) (*DeleteReport, error) {
	report := &DeleteReport{}
	paths, err := s.resolver.AllSecondaryPaths(rec)
	if err != nil {
		return report, err
	}
	removed, err := removeAll(paths)
	report.Removed = removed
	return report, err
}

func removeAll(paths []string) ([]string, error) {
	var removed []string
	var errs []error
	for _, p := range paths {
		if !filex.Exists(p) {
			continue
		}
		if err := os.Remove(p); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
			continue
		}
		removed = append(removed, p)
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("%w: %w", common.ErrStorage, errors.Join(errs...))
	}
	return removed, nil
}
