// Package attachment defines the attachment record: the durable metadata
// for one locally stored message attachment, including its crypto material,
// upload state, and compute-once derived media classifications.
package attachment

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/google/uuid"
)

// Type distinguishes ordinary attachments from voice messages, which share
// the same storage path but render differently.
type Type int

const (
	TypeDefault Type = iota
	TypeVoiceMessage
)

// Record is the local representation of a single attachment.
//
// Identity and descriptive metadata are fixed at construction. The backing
// file path is set exactly once by the writer; once set, the file content is
// immutable for the record's lifetime, which is what makes the derived
// classification caches safe to compute once and keep forever.
//
// All mutable state is guarded by an internal mutex; a Record is safe for
// concurrent use.
type Record struct {
	ID                string
	ContentType       string
	ByteCount         uint32
	SourceFilename    string
	Caption           string
	AlbumGroupID      string
	BlurHash          string
	AttachmentType    Type
	CreationTimestamp time.Time

	mu sync.Mutex

	localRelativeFilePath string

	encryptionKey   []byte
	digest          []byte
	serverID        uint64
	cdnKey          string
	cdnNumber       uint32
	uploadTimestamp uint64
	isUploaded      bool

	isValidImage         Flag
	isValidVideo         Flag
	isAnimated           Flag
	imageWidth           *uint32
	imageHeight          *uint32
	audioDurationSeconds *float64
}

// New creates a fresh record pending a write of its backing file.
func New(contentType string, byteCount uint32, sourceFilename, caption, albumGroupID string) *Record {
	return &Record{
		ID:                uuid.NewString(),
		ContentType:       contentType,
		ByteCount:         byteCount,
		SourceFilename:    sourceFilename,
		Caption:           caption,
		AlbumGroupID:      albumGroupID,
		CreationTimestamp: time.Now().UTC(),
	}
}

// Snapshot is the flat, exported view of a Record used by the persistence
// layer. Nil pointers and FlagUnknown mean "not yet computed".
type Snapshot struct {
	ID                string
	ContentType       string
	ByteCount         uint32
	SourceFilename    string
	Caption           string
	AlbumGroupID      string
	BlurHash          string
	AttachmentType    Type
	CreationTimestamp time.Time

	LocalRelativeFilePath string

	EncryptionKey   []byte
	Digest          []byte
	ServerID        uint64
	CdnKey          string
	CdnNumber       uint32
	UploadTimestamp uint64
	IsUploaded      bool

	IsValidImage         Flag
	IsValidVideo         Flag
	IsAnimated           Flag
	ImageWidth           *uint32
	ImageHeight          *uint32
	AudioDurationSeconds *float64
}

// Restore rebuilds a record from its persisted snapshot. Previously cached
// derived values are carried over verbatim; restoration never recomputes.
func Restore(s Snapshot) *Record {
	return &Record{
		ID:                    s.ID,
		ContentType:           s.ContentType,
		ByteCount:             s.ByteCount,
		SourceFilename:        s.SourceFilename,
		Caption:               s.Caption,
		AlbumGroupID:          s.AlbumGroupID,
		BlurHash:              s.BlurHash,
		AttachmentType:        s.AttachmentType,
		CreationTimestamp:     s.CreationTimestamp,
		localRelativeFilePath: s.LocalRelativeFilePath,
		encryptionKey:         s.EncryptionKey,
		digest:                s.Digest,
		serverID:              s.ServerID,
		cdnKey:                s.CdnKey,
		cdnNumber:             s.CdnNumber,
		uploadTimestamp:       s.UploadTimestamp,
		isUploaded:            s.IsUploaded,
		isValidImage:          s.IsValidImage,
		isValidVideo:          s.IsValidVideo,
		isAnimated:            s.IsAnimated,
		imageWidth:            s.ImageWidth,
		imageHeight:           s.ImageHeight,
		audioDurationSeconds:  s.AudioDurationSeconds,
	}
}

// Snapshot returns a consistent copy of the record's current state.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:                    r.ID,
		ContentType:           r.ContentType,
		ByteCount:             r.ByteCount,
		SourceFilename:        r.SourceFilename,
		Caption:               r.Caption,
		AlbumGroupID:          r.AlbumGroupID,
		BlurHash:              r.BlurHash,
		AttachmentType:        r.AttachmentType,
		CreationTimestamp:     r.CreationTimestamp,
		LocalRelativeFilePath: r.localRelativeFilePath,
		EncryptionKey:         r.encryptionKey,
		Digest:                r.digest,
		ServerID:              r.serverID,
		CdnKey:                r.cdnKey,
		CdnNumber:             r.cdnNumber,
		UploadTimestamp:       r.uploadTimestamp,
		IsUploaded:            r.isUploaded,
		IsValidImage:          r.isValidImage,
		IsValidVideo:          r.isValidVideo,
		IsAnimated:            r.isAnimated,
		ImageWidth:            r.imageWidth,
		ImageHeight:           r.imageHeight,
		AudioDurationSeconds:  r.audioDurationSeconds,
	}
}

// LocalRelativeFilePath returns the backing file path relative to the
// storage root, and whether one has been set.
func (r *Record) LocalRelativeFilePath() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.localRelativeFilePath, r.localRelativeFilePath != ""
}

// SetLocalRelativeFilePath records the backing file location. It may
// succeed at most once per record; a second call returns ErrAlreadyWritten.
func (r *Record) SetLocalRelativeFilePath(relPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.localRelativeFilePath != "" {
		return common.ErrAlreadyWritten
	}
	r.localRelativeFilePath = relPath
	return nil
}

// UploadFields is the server-assigned metadata recorded once an upload
// succeeds. All fields must be present together.
type UploadFields struct {
	EncryptionKey   []byte
	Digest          []byte
	ServerID        uint64
	CdnKey          string
	CdnNumber       uint32
	UploadTimestamp uint64
}

// Validate reports whether the field set is complete enough to mark a
// record uploaded.
func (u UploadFields) Validate() error {
	if len(u.EncryptionKey) == 0 || len(u.Digest) == 0 || u.ServerID == 0 || u.CdnKey == "" || u.UploadTimestamp == 0 {
		return common.ErrIncompleteRecord
	}
	return nil
}

// SetUploaded applies the upload fields and flips isUploaded. Calling it
// again overwrites the server identifiers (re-upload); it never clears the
// local path or any derived cache.
func (r *Record) SetUploaded(u UploadFields) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encryptionKey = u.EncryptionKey
	r.digest = u.Digest
	r.serverID = u.ServerID
	r.cdnKey = u.CdnKey
	r.cdnNumber = u.CdnNumber
	r.uploadTimestamp = u.UploadTimestamp
	r.isUploaded = true
	return nil
}

// SetEncryptionKey installs key material on a record that is being prepared
// for upload. It does not change upload state.
func (r *Record) SetEncryptionKey(key []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encryptionKey = key
}

func (r *Record) IsUploaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isUploaded
}

func (r *Record) EncryptionKey() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encryptionKey
}

func (r *Record) Digest() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.digest
}

func (r *Record) ServerID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serverID
}

func (r *Record) CdnKey() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cdnKey
}

func (r *Record) CdnNumber() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cdnNumber
}

func (r *Record) UploadTimestamp() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploadTimestamp
}

// ValidImage returns the cached image-validity classification.
func (r *Record) ValidImage() Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isValidImage
}

// StoreValidImage caches the classification. The first computed answer
// wins; later calls return the already cached value, which makes concurrent
// duplicate computation harmless.
func (r *Record) StoreValidImage(valid bool) Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isValidImage.Known() {
		r.isValidImage = FlagOf(valid)
	}
	return r.isValidImage
}

func (r *Record) ValidVideo() Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isValidVideo
}

func (r *Record) StoreValidVideo(valid bool) Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isValidVideo.Known() {
		r.isValidVideo = FlagOf(valid)
	}
	return r.isValidVideo
}

func (r *Record) Animated() Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isAnimated
}

func (r *Record) StoreAnimated(animated bool) Flag {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isAnimated.Known() {
		r.isAnimated = FlagOf(animated)
	}
	return r.isAnimated
}

// ImageSize returns the cached dimensions and whether they are known.
func (r *Record) ImageSize() (width, height uint32, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.imageWidth == nil || r.imageHeight == nil {
		return 0, 0, false
	}
	return *r.imageWidth, *r.imageHeight, true
}

func (r *Record) StoreImageSize(width, height uint32) (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.imageWidth == nil || r.imageHeight == nil {
		r.imageWidth = &width
		r.imageHeight = &height
	}
	return *r.imageWidth, *r.imageHeight
}

// AudioDurationSeconds returns the cached duration and whether it is known.
func (r *Record) AudioDurationSeconds() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audioDurationSeconds == nil {
		return 0, false
	}
	return *r.audioDurationSeconds, true
}

func (r *Record) StoreAudioDurationSeconds(seconds float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audioDurationSeconds == nil {
		r.audioDurationSeconds = &seconds
	}
	return *r.audioDurationSeconds
}
