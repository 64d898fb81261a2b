// Package thumbnail generates and serves scaled renditions of visual
// attachments. Renditions are cached on disk at a small fixed set of size
// tiers and in a bounded in-memory LRU; generation runs off the calling
// goroutine with at-most-one-job-per-(record, tier) coalescing, and
// completion callbacks are delivered on a single dispatcher goroutine.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strconv"
	"sync/atomic"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/filex"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/media"
	"github.com/dmitrijs2005/mediavault/internal/store"
)

// memoryCacheSize bounds the decoded-image LRU.
const memoryCacheSize = 64

// FrameExtractor produces the source still frame a rendition is scaled
// from. The built-in extractor decodes image files; extracting a frame
// from video requires an injected implementation backed by a real decoder.
type FrameExtractor interface {
	ExtractFrame(path, contentType string) (image.Image, error)
}

type imageFrameExtractor struct{}

func (imageFrameExtractor) ExtractFrame(path, contentType string) (image.Image, error) {
	if !attachment.IsImageMIME(contentType) {
		return nil, fmt.Errorf("%w: no frame extractor for %s", common.ErrGeneration, contentType)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", common.ErrGeneration, path, err)
	}
	return img, nil
}

type Service struct {
	store      *store.Store
	validator  *media.Validator
	log        logging.Logger
	dispatcher *Dispatcher
	extract    FrameExtractor

	group  singleflight.Group
	memory *lru.Cache[string, image.Image]

	generations atomic.Int64
	diskHits    atomic.Int64
	memoryHits  atomic.Int64
}

// Option customizes a Service.
type Option func(*Service)

// WithFrameExtractor replaces the built-in image-only frame extractor.
func WithFrameExtractor(fe FrameExtractor) Option {
	return func(s *Service) { s.extract = fe }
}

func NewService(st *store.Store, validator *media.Validator, log logging.Logger, opts ...Option) *Service {
	memory, _ := lru.New[string, image.Image](memoryCacheSize)
	s := &Service{
		store:      st,
		validator:  validator,
		log:        log,
		dispatcher: NewDispatcher(),
		extract:    imageFrameExtractor{},
		memory:     memory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close shuts down the completion dispatcher. In-flight generation jobs
// run to completion but their callbacks may be dropped.
func (s *Service) Close() { s.dispatcher.Close() }

// Generations reports how many generation jobs have actually run.
func (s *Service) Generations() int64 { return s.generations.Load() }

// Request returns the cached rendition for the nearest tier covering
// sizeHintPx if one exists, and neither callback fires. On a cache miss it
// returns nil, enqueues an asynchronous generation job, and exactly one of
// onSuccess/onFailure is later delivered on the completion dispatcher,
// never on the worker goroutine and never from inside this call. A failed
// generation is not retried automatically; the next Request starts fresh.
func (s *Service) Request(rec *attachment.Record, sizeHintPx int, onSuccess func(image.Image), onFailure func()) image.Image {
	tier := TierForHint(sizeHintPx)

	if img := s.cached(rec, tier); img != nil {
		return img
	}

	key := rec.ID + "/" + strconv.Itoa(tier)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(rec, tier)
	})

	go func() {
		res := <-ch
		if res.Err != nil {
			s.log.Warn(context.Background(), "thumbnail generation failed",
				"attachment_id", rec.ID, "tier", tier, "error", res.Err)
			s.dispatcher.Post(onFailure)
			return
		}
		img := res.Val.(image.Image)
		s.dispatcher.Post(func() { onSuccess(img) })
	}()

	return nil
}

// RequestSmall, RequestMedium, and RequestLarge request the fixed tiers.
func (s *Service) RequestSmall(rec *attachment.Record, onSuccess func(image.Image), onFailure func()) image.Image {
	return s.Request(rec, store.ThumbnailDimSmall, onSuccess, onFailure)
}

func (s *Service) RequestMedium(rec *attachment.Record, onSuccess func(image.Image), onFailure func()) image.Image {
	return s.Request(rec, store.ThumbnailDimMedium, onSuccess, onFailure)
}

func (s *Service) RequestLarge(rec *attachment.Record, onSuccess func(image.Image), onFailure func()) image.Image {
	return s.Request(rec, store.ThumbnailDimLarge, onSuccess, onFailure)
}

// Sync returns the rendition for the given tier, generating it inline on
// the calling goroutine when it is not cached. Only for callers that can
// tolerate blocking.
func (s *Service) Sync(rec *attachment.Record, tier int) (image.Image, error) {
	if img := s.cached(rec, tier); img != nil {
		return img, nil
	}
	return s.generate(rec, tier)
}

// SmallSync is Sync at the small tier.
func (s *Service) SmallSync(rec *attachment.Record) (image.Image, error) {
	return s.Sync(rec, store.ThumbnailDimSmall)
}

// cached serves from the memory LRU or the on-disk cache file. A disk file
// that no longer decodes is treated as a miss and regenerated.
func (s *Service) cached(rec *attachment.Record, tier int) image.Image {
	key := rec.ID + "/" + strconv.Itoa(tier)

	if img, ok := s.memory.Get(key); ok {
		s.memoryHits.Add(1)
		return img
	}

	path, err := s.store.Resolver().ThumbnailPath(rec, tier)
	if err != nil {
		return nil
	}
	if !filex.Exists(path) {
		return nil
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil
	}
	s.diskHits.Add(1)
	s.memory.Add(key, img)
	return img
}

// generate runs the full pipeline: extract source frame, scale to fit the
// tier bound preserving aspect ratio, encode, place the cache file
// atomically, then decode the written file back into the image that is
// handed out. Failing any step fails the whole job.
func (s *Service) generate(rec *attachment.Record, tier int) (image.Image, error) {
	s.generations.Add(1)

	if !attachment.HasThumbnail(rec.ContentType) {
		return nil, fmt.Errorf("%w: no thumbnails for %s", common.ErrGeneration, rec.ContentType)
	}
	if !s.validator.IsValidVisualMedia(context.Background(), rec) {
		return nil, fmt.Errorf("%w: invalid visual media", common.ErrGeneration)
	}

	src, err := s.store.OriginalFilePath(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrGeneration, err)
	}

	frame, err := s.extract.ExtractFrame(src, rec.ContentType)
	if err != nil {
		return nil, err
	}

	scaled := imaging.Fit(frame, tier, tier, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", common.ErrGeneration, err)
	}

	path, err := s.store.Resolver().ThumbnailPath(rec, tier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrGeneration, err)
	}
	if err := filex.WriteAtomic(path, &buf); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", common.ErrGeneration, path, err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reread %s: %w", common.ErrGeneration, path, err)
	}

	key := rec.ID + "/" + strconv.Itoa(tier)
	s.memory.Add(key, img)
	return img, nil
}

// DeleteCached drops the record's renditions from the memory cache and
// removes its on-disk cache files, reporting what was removed.
func (s *Service) DeleteCached(rec *attachment.Record) (*store.DeleteReport, error) {
	for _, dim := range store.ThumbnailDims {
		s.memory.Remove(rec.ID + "/" + strconv.Itoa(dim))
	}
	return s.store.DeleteSecondaryFiles(rec)
}
