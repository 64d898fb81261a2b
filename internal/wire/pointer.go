// Package wire builds and encodes the attachment pointer message that is
// sent in place of attachment content: enough metadata for a recipient to
// fetch and decrypt the uploaded blob.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// AttachmentPointer field numbers on the wire.
const (
	fieldCdnID           = 1
	fieldContentType     = 2
	fieldKey             = 3
	fieldSize            = 4
	fieldDigest          = 6
	fieldFileName        = 7
	fieldFlags           = 8
	fieldWidth           = 9
	fieldHeight          = 10
	fieldCaption         = 11
	fieldBlurHash        = 12
	fieldUploadTimestamp = 13
	fieldCdnNumber       = 14
	fieldCdnKey          = 15
)

// Flags bitmask values carried in the pointer.
const (
	FlagVoiceMessage uint32 = 1 << iota
)

// AttachmentPointer is the decoded form of the pointer message.
type AttachmentPointer struct {
	CdnID           uint64
	CdnKey          string
	CdnNumber       uint32
	ContentType     string
	Key             []byte
	Size            uint32
	Digest          []byte
	FileName        string
	Flags           uint32
	Width           uint32
	Height          uint32
	Caption         string
	BlurHash        string
	UploadTimestamp uint64
}

// Marshal encodes the pointer in protobuf wire format. Zero-valued fields
// are omitted, matching proto3 presence rules.
func (p *AttachmentPointer) Marshal() []byte {
	var b []byte

	if p.CdnID != 0 {
		b = protowire.AppendTag(b, fieldCdnID, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, p.CdnID)
	}
	if p.ContentType != "" {
		b = protowire.AppendTag(b, fieldContentType, protowire.BytesType)
		b = protowire.AppendString(b, p.ContentType)
	}
	if len(p.Key) > 0 {
		b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Key)
	}
	if p.Size != 0 {
		b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Size))
	}
	if len(p.Digest) > 0 {
		b = protowire.AppendTag(b, fieldDigest, protowire.BytesType)
		b = protowire.AppendBytes(b, p.Digest)
	}
	if p.FileName != "" {
		b = protowire.AppendTag(b, fieldFileName, protowire.BytesType)
		b = protowire.AppendString(b, p.FileName)
	}
	if p.Flags != 0 {
		b = protowire.AppendTag(b, fieldFlags, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Flags))
	}
	if p.Width != 0 {
		b = protowire.AppendTag(b, fieldWidth, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Width))
	}
	if p.Height != 0 {
		b = protowire.AppendTag(b, fieldHeight, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.Height))
	}
	if p.Caption != "" {
		b = protowire.AppendTag(b, fieldCaption, protowire.BytesType)
		b = protowire.AppendString(b, p.Caption)
	}
	if p.BlurHash != "" {
		b = protowire.AppendTag(b, fieldBlurHash, protowire.BytesType)
		b = protowire.AppendString(b, p.BlurHash)
	}
	if p.UploadTimestamp != 0 {
		b = protowire.AppendTag(b, fieldUploadTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, p.UploadTimestamp)
	}
	if p.CdnNumber != 0 {
		b = protowire.AppendTag(b, fieldCdnNumber, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.CdnNumber))
	}
	if p.CdnKey != "" {
		b = protowire.AppendTag(b, fieldCdnKey, protowire.BytesType)
		b = protowire.AppendString(b, p.CdnKey)
	}
	return b
}

// Unmarshal decodes wire-format bytes into the pointer, skipping unknown
// fields for forward compatibility.
func Unmarshal(data []byte) (*AttachmentPointer, error) {
	p := &AttachmentPointer{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("attachment pointer: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldCdnID && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.CdnID = v
			data = data[n:]
		case num == fieldCdnID && typ == protowire.VarintType:
			// older senders encode the id as a varint
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.CdnID = v
			data = data[n:]
		case num == fieldContentType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.ContentType = v
			data = data[n:]
		case num == fieldKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Key = append([]byte(nil), v...)
			data = data[n:]
		case num == fieldSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Size = uint32(v)
			data = data[n:]
		case num == fieldDigest && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Digest = append([]byte(nil), v...)
			data = data[n:]
		case num == fieldFileName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.FileName = v
			data = data[n:]
		case num == fieldFlags && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Flags = uint32(v)
			data = data[n:]
		case num == fieldWidth && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Width = uint32(v)
			data = data[n:]
		case num == fieldHeight && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Height = uint32(v)
			data = data[n:]
		case num == fieldCaption && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.Caption = v
			data = data[n:]
		case num == fieldBlurHash && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.BlurHash = v
			data = data[n:]
		case num == fieldUploadTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.UploadTimestamp = v
			data = data[n:]
		case num == fieldCdnNumber && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.CdnNumber = uint32(v)
			data = data[n:]
		case num == fieldCdnKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			p.CdnKey = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fieldErr(num, n)
			}
			data = data[n:]
		}
	}
	return p, nil
}

func fieldErr(num protowire.Number, n int) error {
	return fmt.Errorf("attachment pointer: field %d: %w", num, protowire.ParseError(n))
}
