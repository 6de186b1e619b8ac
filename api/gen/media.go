// Package gen holds the wire types of the MediaService API.
//
// Messages are encoded in the protobuf binary format with the field numbers
// of media-services.proto, so the payloads stay readable by any protobuf
// decoder. Encoding is done with protowire instead of generated reflection
// code; see codec.go.
package gen

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Media describes one stored object.
type Media struct {
	OriginalName string
	Hash         string
	Size         int64
}

func (x *Media) GetOriginalName() string {
	if x != nil {
		return x.OriginalName
	}
	return ""
}

func (x *Media) GetHash() string {
	if x != nil {
		return x.Hash
	}
	return ""
}

func (x *Media) GetSize() int64 {
	if x != nil {
		return x.Size
	}
	return 0
}

func (x *Media) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.OriginalName)
	b = appendString(b, 2, x.Hash)
	b = appendVarint(b, 3, uint64(x.Size))
	return b
}

func (x *Media) unmarshalWire(b []byte) error {
	*x = Media{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &x.OriginalName)
		case 2:
			return consumeString(typ, b, &x.Hash)
		case 3:
			return consumeInt64(typ, b, &x.Size)
		}
		return 0
	})
}

// MediaChunk is one unit of a streamed transfer. On upload the first chunk
// carries OriginalName and Hash; on download every chunk carries TotalSize.
type MediaChunk struct {
	OriginalName string
	Hash         string
	Content      []byte
	TotalSize    int64
}

func (x *MediaChunk) GetOriginalName() string {
	if x != nil {
		return x.OriginalName
	}
	return ""
}

func (x *MediaChunk) GetHash() string {
	if x != nil {
		return x.Hash
	}
	return ""
}

func (x *MediaChunk) GetContent() []byte {
	if x != nil {
		return x.Content
	}
	return nil
}

func (x *MediaChunk) GetTotalSize() int64 {
	if x != nil {
		return x.TotalSize
	}
	return 0
}

func (x *MediaChunk) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.OriginalName)
	b = appendString(b, 2, x.Hash)
	b = appendBytes(b, 3, x.Content)
	b = appendVarint(b, 4, uint64(x.TotalSize))
	return b
}

func (x *MediaChunk) unmarshalWire(b []byte) error {
	*x = MediaChunk{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &x.OriginalName)
		case 2:
			return consumeString(typ, b, &x.Hash)
		case 3:
			return consumeBytes(typ, b, &x.Content)
		case 4:
			return consumeInt64(typ, b, &x.TotalSize)
		}
		return 0
	})
}

type ListMediaRequest struct {
	OriginalName string
}

func (x *ListMediaRequest) GetOriginalName() string {
	if x != nil {
		return x.OriginalName
	}
	return ""
}

func (x *ListMediaRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, x.OriginalName)
}

func (x *ListMediaRequest) unmarshalWire(b []byte) error {
	*x = ListMediaRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &x.OriginalName)
		}
		return 0
	})
}

type ListMediaResponse struct {
	Medias []*Media
}

func (x *ListMediaResponse) GetMedias() []*Media {
	if x != nil {
		return x.Medias
	}
	return nil
}

func (x *ListMediaResponse) appendWire(b []byte) []byte {
	for _, m := range x.Medias {
		if m == nil {
			continue
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, m.appendWire(nil))
	}
	return b
}

func (x *ListMediaResponse) unmarshalWire(b []byte) error {
	*x = ListMediaResponse{}
	var nested error
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 || typ != protowire.BytesType {
			return 0
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n
		}
		m := &Media{}
		if err := m.unmarshalWire(v); err != nil {
			nested = err
			return -1
		}
		x.Medias = append(x.Medias, m)
		return n
	})
	if nested != nil {
		return nested
	}
	return err
}

type CreateMediaResponse struct {
	Success bool
}

func (x *CreateMediaResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *CreateMediaResponse) appendWire(b []byte) []byte {
	return appendBool(b, 1, x.Success)
}

func (x *CreateMediaResponse) unmarshalWire(b []byte) error {
	*x = CreateMediaResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeBool(typ, b, &x.Success)
		}
		return 0
	})
}

type GetMediaRequest struct {
	OriginalName string
}

func (x *GetMediaRequest) GetOriginalName() string {
	if x != nil {
		return x.OriginalName
	}
	return ""
}

func (x *GetMediaRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, x.OriginalName)
}

func (x *GetMediaRequest) unmarshalWire(b []byte) error {
	*x = GetMediaRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &x.OriginalName)
		}
		return 0
	})
}

type DeleteMediaRequest struct {
	OriginalName string
}

func (x *DeleteMediaRequest) GetOriginalName() string {
	if x != nil {
		return x.OriginalName
	}
	return ""
}

func (x *DeleteMediaRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, x.OriginalName)
}

func (x *DeleteMediaRequest) unmarshalWire(b []byte) error {
	*x = DeleteMediaRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeString(typ, b, &x.OriginalName)
		}
		return 0
	})
}

type DeleteMediaResponse struct {
	Success bool
}

func (x *DeleteMediaResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *DeleteMediaResponse) appendWire(b []byte) []byte {
	return appendBool(b, 1, x.Success)
}

func (x *DeleteMediaResponse) unmarshalWire(b []byte) error {
	*x = DeleteMediaResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num == 1 {
			return consumeBool(typ, b, &x.Success)
		}
		return 0
	})
}
