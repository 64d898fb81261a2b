// Package media classifies attachment content by inspecting file bytes,
// never trusting the declared content type alone. Every classification is
// computed at most once per record and cached permanently; a malformed file
// is a legitimate, cacheable "no", not an error.
package media

import (
	"context"
	"image"
	"io"
	"sync/atomic"

	// structural parsers for the still-image formats we accept
	_ "image/jpeg"
	_ "image/png"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/store"
	"github.com/gabriel-vasile/mimetype"
)

// maxSniffBytes bounds how much of a file the sniffer reads.
const maxSniffBytes = 3072

type Validator struct {
	store *store.Store
	log   logging.Logger

	decodes atomic.Int64
}

func NewValidator(st *store.Store, log logging.Logger) *Validator {
	return &Validator{store: st, log: log}
}

// DecodeCount returns how many underlying file inspections the validator
// has performed. Useful for asserting the compute-once behavior.
func (v *Validator) DecodeCount() int64 { return v.decodes.Load() }

// ShouldHaveImageSize reports whether dimension metadata is meaningful for
// the record's content type: visual media yes, audio and generic binary no.
func (v *Validator) ShouldHaveImageSize(rec *attachment.Record) bool {
	return attachment.IsVisualMediaMIME(rec.ContentType)
}

// IsValidImage reports whether the backing file parses as an image of the
// declared family. The answer is cached on first computation.
func (v *Validator) IsValidImage(ctx context.Context, rec *attachment.Record) bool {
	if f := rec.ValidImage(); f.Known() {
		return f.Bool()
	}
	if _, ok := rec.LocalRelativeFilePath(); !ok {
		// no backing file yet: report false but leave the cache unknown
		return false
	}
	valid := v.computeValidImage(rec)
	result := rec.StoreValidImage(valid)
	v.persist(ctx, rec)
	return result.Bool()
}

func (v *Validator) computeValidImage(rec *attachment.Record) bool {
	if !attachment.IsImageMIME(rec.ContentType) {
		return false
	}
	data, err := v.readHead(rec)
	if err != nil {
		return false
	}
	v.decodes.Add(1)

	mt := mimetype.Detect(data)
	if !isImageMIMEType(mt) {
		return false
	}
	// Structural parse for the formats the standard library knows; for the
	// rest the magic-number sniff is the structural check. The frame header
	// can sit behind arbitrarily large metadata segments (camera EXIF), so
	// parse the file itself, not the sniff buffer; DecodeConfig stops at
	// the header.
	r, err := v.store.OpenOriginal(rec)
	if err != nil {
		return false
	}
	defer r.Close()
	if _, _, err := image.DecodeConfig(r); err != nil {
		return mt.Is(attachment.MIMEWebP)
	}
	return true
}

// IsValidVideo reports whether the backing file looks like a well-formed
// video container. Frame-level decoding is a collaborator concern; this
// checks container structure and sniffed type agreement.
func (v *Validator) IsValidVideo(ctx context.Context, rec *attachment.Record) bool {
	if f := rec.ValidVideo(); f.Known() {
		return f.Bool()
	}
	if _, ok := rec.LocalRelativeFilePath(); !ok {
		return false
	}
	valid := v.computeValidVideo(rec)
	result := rec.StoreValidVideo(valid)
	v.persist(ctx, rec)
	return result.Bool()
}

func (v *Validator) computeValidVideo(rec *attachment.Record) bool {
	if !attachment.IsVideoMIME(rec.ContentType) {
		return false
	}
	data, err := v.readHead(rec)
	if err != nil {
		return false
	}
	v.decodes.Add(1)

	if !isVideoContainer(data) {
		return false
	}
	mt := mimetype.Detect(data)
	return isVideoMIMEType(mt)
}

// IsValidVisualMedia reports whether the record is renderable at all:
// a valid image for image types, a valid video for video types.
func (v *Validator) IsValidVisualMedia(ctx context.Context, rec *attachment.Record) bool {
	switch {
	case attachment.IsImageMIME(rec.ContentType):
		return v.IsValidImage(ctx, rec)
	case attachment.IsVideoMIME(rec.ContentType):
		return v.IsValidVideo(ctx, rec)
	default:
		return false
	}
}

// IsAnimated reports whether the backing file actually animates (more than
// one frame), not merely whether its format could.
func (v *Validator) IsAnimated(ctx context.Context, rec *attachment.Record) bool {
	if f := rec.Animated(); f.Known() {
		return f.Bool()
	}
	if _, ok := rec.LocalRelativeFilePath(); !ok {
		return false
	}
	animated := v.computeAnimated(rec)
	result := rec.StoreAnimated(animated)
	v.persist(ctx, rec)
	return result.Bool()
}

func (v *Validator) computeAnimated(rec *attachment.Record) bool {
	if !attachment.IsAnimatedMIME(rec.ContentType) {
		return false
	}
	r, err := v.store.OpenOriginal(rec)
	if err != nil {
		return false
	}
	defer r.Close()
	v.decodes.Add(1)
	return gifFrameCount(r) > 1
}

// ImageSize returns the pixel dimensions of the backing image, computing
// and caching them on first call. Returns (0, 0) when the record is not
// visual media or the file cannot be parsed; the zero answer is cached too.
func (v *Validator) ImageSize(ctx context.Context, rec *attachment.Record) (uint32, uint32) {
	if w, h, ok := rec.ImageSize(); ok {
		return w, h
	}
	if _, ok := rec.LocalRelativeFilePath(); !ok {
		return 0, 0
	}
	w, h := v.computeImageSize(rec)
	w, h = rec.StoreImageSize(w, h)
	v.persist(ctx, rec)
	return w, h
}

func (v *Validator) computeImageSize(rec *attachment.Record) (uint32, uint32) {
	if !v.ShouldHaveImageSize(rec) || !attachment.IsImageMIME(rec.ContentType) {
		return 0, 0
	}
	r, err := v.store.OpenOriginal(rec)
	if err != nil {
		return 0, 0
	}
	defer r.Close()
	v.decodes.Add(1)
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0
	}
	return uint32(cfg.Width), uint32(cfg.Height)
}

// AudioDurationSeconds returns the duration of the backing audio file,
// computing and caching it on first call. Only WAV containers are parsed
// locally; other audio types return the cached zero sentinel.
func (v *Validator) AudioDurationSeconds(ctx context.Context, rec *attachment.Record) float64 {
	if d, ok := rec.AudioDurationSeconds(); ok {
		return d
	}
	if _, ok := rec.LocalRelativeFilePath(); !ok {
		return 0
	}
	d := v.computeAudioDuration(rec)
	d = rec.StoreAudioDurationSeconds(d)
	v.persist(ctx, rec)
	return d
}

func (v *Validator) computeAudioDuration(rec *attachment.Record) float64 {
	if !attachment.IsAudioMIME(rec.ContentType) {
		return 0
	}
	data, err := v.store.ReadData(rec)
	if err != nil {
		return 0
	}
	v.decodes.Add(1)
	d, err := wavDurationSeconds(data)
	if err != nil {
		return 0
	}
	return d
}

// readHead returns up to maxSniffBytes from the start of the backing file.
// Enough for magic-number sniffing; structural parses read the file itself.
func (v *Validator) readHead(rec *attachment.Record) ([]byte, error) {
	r, err := v.store.OpenOriginal(rec)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, maxSniffBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (v *Validator) persist(ctx context.Context, rec *attachment.Record) {
	if err := v.store.Persist(ctx, rec); err != nil {
		v.log.Warn(ctx, "failed to persist derived classification", "attachment_id", rec.ID, "error", err)
	}
}

func isImageMIMEType(mt *mimetype.MIME) bool {
	for _, ct := range []string{attachment.MIMEJPEG, attachment.MIMEPNG, attachment.MIMEGIF, attachment.MIMEWebP} {
		if mt.Is(ct) {
			return true
		}
	}
	return false
}

func isVideoMIMEType(mt *mimetype.MIME) bool {
	for _, ct := range []string{attachment.MIMEMP4, attachment.MIMEWebM, "video/quicktime"} {
		if mt.Is(ct) {
			return true
		}
	}
	return false
}
