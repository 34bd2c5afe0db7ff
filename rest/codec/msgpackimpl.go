package codec

import (
	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgpackCodec creates a new codec using MessagePack encoding
func NewMsgpackCodec() ICodec {
	return &msgpackCodecImpl{}
}

// msgpackCodecImpl implements the ICodec interface using MessagePack encoding
type msgpackCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (m msgpackCodecImpl) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (m msgpackCodecImpl) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (m msgpackCodecImpl) ContentType() string {
	return "application/msgpack"
}

func (m msgpackCodecImpl) GetName() string {
	return "msgpack"
}
