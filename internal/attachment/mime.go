package attachment

import (
	"path"
	"strings"
)

// Content types the store treats specially. Everything else is handled as an
// opaque binary blob.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
	MIMEWebP = "image/webp"
	MIMEMP4  = "video/mp4"
	MIMEWebM = "video/webm"
	MIMEWAV  = "audio/wav"
)

// IsImageMIME reports whether ct declares a still or animated image.
func IsImageMIME(ct string) bool {
	return strings.HasPrefix(strings.ToLower(ct), "image/")
}

// IsAnimatedMIME reports whether ct declares a format that can animate.
// Only GIF is treated as potentially animated; whether a particular file
// actually animates is decided by inspecting its frames.
func IsAnimatedMIME(ct string) bool {
	return strings.EqualFold(ct, MIMEGIF)
}

// IsVideoMIME reports whether ct declares video content.
func IsVideoMIME(ct string) bool {
	return strings.HasPrefix(strings.ToLower(ct), "video/")
}

// IsAudioMIME reports whether ct declares audio content.
func IsAudioMIME(ct string) bool {
	return strings.HasPrefix(strings.ToLower(ct), "audio/")
}

// IsVisualMediaMIME reports whether ct declares content that renders as
// pixels (image or video).
func IsVisualMediaMIME(ct string) bool {
	return IsImageMIME(ct) || IsVideoMIME(ct)
}

// HasThumbnail reports whether renditions can be derived for ct. Only
// visual media gets thumbnails; audio and generic binaries do not.
func HasThumbnail(ct string) bool {
	return IsVisualMediaMIME(ct)
}

var mimeExtensions = map[string]string{
	MIMEJPEG:     ".jpg",
	MIMEPNG:      ".png",
	MIMEGIF:      ".gif",
	MIMEWebP:     ".webp",
	MIMEMP4:      ".mp4",
	MIMEWebM:     ".webm",
	MIMEWAV:      ".wav",
	"audio/mpeg": ".mp3",
	"audio/aac":  ".aac",
	"text/plain": ".txt",
}

// ExtensionForMIME returns the canonical file extension (with leading dot)
// for ct, or ".bin" when the type is unrecognized. Falling back to a fixed
// extension keeps path derivation deterministic for arbitrary types.
func ExtensionForMIME(ct string) string {
	if ext, ok := mimeExtensions[strings.ToLower(ct)]; ok {
		return ext
	}
	return ".bin"
}

// ExtensionMatches reports whether filename carries the canonical extension
// for ct.
func ExtensionMatches(ct, filename string) bool {
	return strings.EqualFold(path.Ext(filename), ExtensionForMIME(ct))
}
