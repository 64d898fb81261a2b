package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMIMEPredicates(t *testing.T) {
	tests := []struct {
		ct       string
		image    bool
		video    bool
		audio    bool
		visual   bool
		animated bool
	}{
		{"image/jpeg", true, false, false, true, false},
		{"image/gif", true, false, false, true, true},
		{"IMAGE/GIF", true, false, false, true, true},
		{"video/mp4", false, true, false, true, false},
		{"audio/wav", false, false, true, false, false},
		{"application/octet-stream", false, false, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.ct, func(t *testing.T) {
			assert.Equal(t, tc.image, IsImageMIME(tc.ct))
			assert.Equal(t, tc.video, IsVideoMIME(tc.ct))
			assert.Equal(t, tc.audio, IsAudioMIME(tc.ct))
			assert.Equal(t, tc.visual, IsVisualMediaMIME(tc.ct))
			assert.Equal(t, tc.animated, IsAnimatedMIME(tc.ct))
			assert.Equal(t, tc.visual, HasThumbnail(tc.ct))
		})
	}
}

func TestExtensionForMIME(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionForMIME("image/jpeg"))
	assert.Equal(t, ".jpg", ExtensionForMIME("IMAGE/JPEG"))
	assert.Equal(t, ".mp4", ExtensionForMIME("video/mp4"))
	assert.Equal(t, ".bin", ExtensionForMIME("application/x-unknown"))
}

func TestExtensionMatches(t *testing.T) {
	assert.True(t, ExtensionMatches("image/jpeg", "photo.jpg"))
	assert.True(t, ExtensionMatches("image/jpeg", "PHOTO.JPG"))
	assert.False(t, ExtensionMatches("image/jpeg", "photo.png"))
}
