package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/gif"
	"io"
)

// isVideoContainer checks the structural magic of the video containers we
// accept: ISO BMFF (MP4/QuickTime), WebM/Matroska, MPEG transport stream.
func isVideoContainer(data []byte) bool {
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return true
	}
	// EBML header (WebM, Matroska)
	if len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return true
	}
	// MPEG-TS sync byte repeated at packet boundaries
	if len(data) >= 189 && data[0] == 0x47 && data[188] == 0x47 {
		return true
	}
	return false
}

// gifFrameCount decodes the GIF stream and returns its frame count, or 0
// when the stream is malformed.
func gifFrameCount(r io.Reader) int {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return 0
	}
	return len(g.Image)
}

var errMalformedWAV = errors.New("malformed wav")

// wavDurationSeconds computes the play time of a RIFF/WAVE stream from its
// fmt chunk byte rate and data chunk length.
func wavDurationSeconds(data []byte) (float64, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return 0, errMalformedWAV
	}

	var byteRate uint32
	var dataSize uint32
	foundFmt, foundData := false, false

	off := 12
	for off+8 <= len(data) {
		chunkID := data[off : off+4]
		chunkSize := binary.LittleEndian.Uint32(data[off+4 : off+8])
		body := off + 8
		if body+int(chunkSize) > len(data) {
			// tolerate a truncated final data chunk
			if bytes.Equal(chunkID, []byte("data")) {
				chunkSize = uint32(len(data) - body)
			} else {
				return 0, errMalformedWAV
			}
		}

		switch {
		case bytes.Equal(chunkID, []byte("fmt ")):
			if chunkSize < 16 {
				return 0, errMalformedWAV
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			foundFmt = true
		case bytes.Equal(chunkID, []byte("data")):
			dataSize = chunkSize
			foundData = true
		}

		// chunks are word-aligned
		off = body + int(chunkSize)
		if chunkSize%2 == 1 {
			off++
		}
	}

	if !foundFmt || !foundData || byteRate == 0 {
		return 0, errMalformedWAV
	}
	return float64(dataSize) / float64(byteRate), nil
}
