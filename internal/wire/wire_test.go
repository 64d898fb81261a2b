package wire

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadedRecord(t *testing.T) *attachment.Record {
	t.Helper()
	rec := attachment.New("image/jpeg", 2048, "photo.jpg", "look at this", "album-9")
	require.NoError(t, rec.SetUploaded(attachment.UploadFields{
		EncryptionKey:   bytes.Repeat([]byte{0xAA}, 64),
		Digest:          bytes.Repeat([]byte{0xBB}, 32),
		ServerID:        424242,
		CdnKey:          "remote-key",
		CdnNumber:       2,
		UploadTimestamp: 1700000000000,
	}))
	return rec
}

func TestBuild_PopulatesAllFields(t *testing.T) {
	rec := uploadedRecord(t)
	rec.StoreImageSize(1920, 1080)

	p, err := NewBuilder().Build(rec)
	require.NoError(t, err)

	assert.Equal(t, uint64(424242), p.CdnID)
	assert.Equal(t, "remote-key", p.CdnKey)
	assert.Equal(t, uint32(2), p.CdnNumber)
	assert.Equal(t, "image/jpeg", p.ContentType)
	assert.Equal(t, rec.EncryptionKey(), p.Key)
	assert.Equal(t, uint32(2048), p.Size)
	assert.Equal(t, rec.Digest(), p.Digest)
	assert.Equal(t, "photo.jpg", p.FileName)
	assert.Equal(t, "look at this", p.Caption)
	assert.Equal(t, uint64(1700000000000), p.UploadTimestamp)
	assert.Equal(t, uint32(1920), p.Width)
	assert.Equal(t, uint32(1080), p.Height)
	assert.Zero(t, p.Flags)
}

func TestBuild_NotUploaded(t *testing.T) {
	rec := attachment.New("image/jpeg", 10, "", "", "")

	p, err := NewBuilder().Build(rec)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, common.ErrNotUploaded)
}

func TestBuild_UnknownDimensionsOmitted(t *testing.T) {
	rec := uploadedRecord(t)

	p, err := NewBuilder().Build(rec)
	require.NoError(t, err)
	assert.Zero(t, p.Width)
	assert.Zero(t, p.Height)
}

func TestBuild_VoiceMessageFlag(t *testing.T) {
	rec := uploadedRecord(t)
	rec.AttachmentType = attachment.TypeVoiceMessage

	p, err := NewBuilder().Build(rec)
	require.NoError(t, err)
	assert.Equal(t, FlagVoiceMessage, p.Flags&FlagVoiceMessage)
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	orig := &AttachmentPointer{
		CdnID:           77,
		CdnKey:          "k",
		CdnNumber:       3,
		ContentType:     "video/mp4",
		Key:             []byte{1, 2, 3},
		Size:            999,
		Digest:          []byte{4, 5, 6},
		FileName:        "clip.mp4",
		Flags:           FlagVoiceMessage,
		Width:           640,
		Height:          480,
		Caption:         "c",
		BlurHash:        "LKO2?U%2Tw=w",
		UploadTimestamp: 12345,
	}

	got, err := Unmarshal(orig.Marshal())
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestMarshal_OmitsZeroFields(t *testing.T) {
	p := &AttachmentPointer{ContentType: "image/png"}
	data := p.Marshal()

	// a single length-delimited field: tag, length, payload
	num, typ, n := protowire.ConsumeTag(data)
	require.Positive(t, n)
	assert.Equal(t, protowire.Number(2), num)
	assert.Equal(t, protowire.BytesType, typ)
	s, m := protowire.ConsumeString(data[n:])
	require.Positive(t, m)
	assert.Equal(t, "image/png", s)
	assert.Len(t, data, n+m)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	data := (&AttachmentPointer{Size: 10}).Marshal()
	data = protowire.AppendTag(data, 100, protowire.BytesType)
	data = protowire.AppendString(data, "future field")

	p, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), p.Size)
}

func TestUnmarshal_VarintCdnID(t *testing.T) {
	var data []byte
	data = protowire.AppendTag(data, 1, protowire.VarintType)
	data = protowire.AppendVarint(data, 55)

	p, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), p.CdnID)
}

func TestUnmarshal_Truncated(t *testing.T) {
	data := uploadedPointerBytes(t)
	_, err := Unmarshal(data[:len(data)-1])
	assert.Error(t, err)
}

func uploadedPointerBytes(t *testing.T) []byte {
	t.Helper()
	p, err := NewBuilder().Build(uploadedRecord(t))
	require.NoError(t, err)
	return p.Marshal()
}

func TestBuild_MissingAnyServerFieldFails(t *testing.T) {
	// removing any one required server-assigned field makes the record
	// unusable for pointer construction
	base := attachment.UploadFields{
		EncryptionKey:   bytes.Repeat([]byte{0xAA}, 64),
		Digest:          bytes.Repeat([]byte{0xBB}, 32),
		ServerID:        1,
		CdnKey:          "k",
		CdnNumber:       0, // cdn 0 is valid
		UploadTimestamp: 1,
	}

	mutations := map[string]func(*attachment.UploadFields){
		"key":       func(u *attachment.UploadFields) { u.EncryptionKey = nil },
		"digest":    func(u *attachment.UploadFields) { u.Digest = nil },
		"server id": func(u *attachment.UploadFields) { u.ServerID = 0 },
		"cdn key":   func(u *attachment.UploadFields) { u.CdnKey = "" },
		"timestamp": func(u *attachment.UploadFields) { u.UploadTimestamp = 0 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			fields := base
			mutate(&fields)
			rec := attachment.New("image/jpeg", 1, "", "", "")
			err := rec.SetUploaded(fields)
			assert.ErrorIs(t, err, common.ErrIncompleteRecord)

			p, buildErr := NewBuilder().Build(rec)
			assert.Nil(t, p)
			assert.Error(t, buildErr)
		})
	}
}
