package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/store"
	"github.com/dmitrijs2005/mediavault/internal/thumbnail"
)

// Dispatch runs a single subcommand. Unknown or missing commands print
// usage and return an error.
func (a *App) Dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()
		return fmt.Errorf("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.cmdAdd(ctx, rest)
	case "list":
		return a.cmdList(ctx)
	case "info":
		return a.cmdInfo(ctx, rest)
	case "thumb":
		return a.cmdThumb(ctx, rest)
	case "pointer":
		return a.cmdPointer(ctx, rest)
	case "delete":
		return a.cmdDelete(ctx, rest)
	case "help":
		a.printUsage()
		return nil
	default:
		a.printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) printUsage() {
	fmt.Fprintln(a.out, `Usage: mediavault [flags] <command>

Commands:
  add <file> [caption]   import a file as a new attachment
  list                   list stored attachment ids
  info <id>              show attachment metadata and media classification
  thumb <id> [px]        generate a thumbnail covering px (default small)
  pointer <id>           print the wire pointer for an uploaded attachment
  delete <id>            delete an attachment and its cached renditions
  help                   show this help

Flags: -r storage root, -l legacy root, -d database path, -c config file`)
}

func (a *App) cmdAdd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("add: file path required")
	}
	path := args[0]
	caption := ""
	if len(args) > 1 {
		caption = args[1]
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}

	src := store.NewFileSource(path)
	size, err := src.Size()
	if err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}

	rec := attachment.New(mt.String(), uint32(size), filepath.Base(path), caption, "")
	if err := a.store.WriteCopying(ctx, rec, src); err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}

	fmt.Fprintf(a.out, "added %s (%s, %d bytes)\n", rec.ID, rec.ContentType, rec.ByteCount)
	return nil
}

func (a *App) cmdList(ctx context.Context) error {
	ids, err := a.repo.ListIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}
	return nil
}

func (a *App) cmdInfo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info: attachment id required")
	}
	rec, err := a.repo.GetByID(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:           %s\n", rec.ID)
	fmt.Fprintf(a.out, "content type: %s\n", rec.ContentType)
	fmt.Fprintf(a.out, "bytes:        %d\n", rec.ByteCount)
	fmt.Fprintf(a.out, "file name:    %s\n", rec.SourceFilename)
	fmt.Fprintf(a.out, "uploaded:     %t\n", rec.IsUploaded())
	fmt.Fprintf(a.out, "valid image:  %t\n", a.validator.IsValidImage(ctx, rec))
	fmt.Fprintf(a.out, "valid video:  %t\n", a.validator.IsValidVideo(ctx, rec))
	fmt.Fprintf(a.out, "animated:     %t\n", a.validator.IsAnimated(ctx, rec))
	if w, h := a.validator.ImageSize(ctx, rec); w > 0 || h > 0 {
		fmt.Fprintf(a.out, "dimensions:   %dx%d\n", w, h)
	}
	if d := a.validator.AudioDurationSeconds(ctx, rec); d > 0 {
		fmt.Fprintf(a.out, "duration:     %.1fs\n", d)
	}
	return nil
}

func (a *App) cmdThumb(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("thumb: attachment id required")
	}
	rec, err := a.repo.GetByID(ctx, args[0])
	if err != nil {
		return err
	}

	hint := 0
	if len(args) > 1 {
		hint, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("thumb: bad size %q: %w", args[1], err)
		}
	}
	tier := thumbnail.TierForHint(hint)

	img, err := a.thumbs.Sync(rec, tier)
	if err != nil {
		return fmt.Errorf("thumb %s: %w", rec.ID, err)
	}

	path, err := a.store.Resolver().ThumbnailPath(rec, tier)
	if err != nil {
		return err
	}
	b := img.Bounds()
	fmt.Fprintf(a.out, "%s (%dx%d)\n", path, b.Dx(), b.Dy())
	return nil
}

func (a *App) cmdPointer(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("pointer: attachment id required")
	}
	rec, err := a.repo.GetByID(ctx, args[0])
	if err != nil {
		return err
	}

	p, err := a.builder.Build(rec)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hex.EncodeToString(p.Marshal()))
	return nil
}

func (a *App) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete: attachment id required")
	}
	rec, err := a.repo.GetByID(ctx, args[0])
	if err != nil {
		return err
	}

	if _, err := a.thumbs.DeleteCached(rec); err != nil {
		a.log.Warn(ctx, "could not remove cached renditions", "attachment_id", rec.ID, "error", err)
	}
	report, err := a.store.DeleteRecord(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s (%d files removed)\n", rec.ID, len(report.Removed))
	return nil
}
