package codec

import (
	"encoding/json"
)

// NewJSONCodec creates a new codec using json encoding
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements the ICodec interface using json encoding
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonCodecImpl) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (j jsonCodecImpl) ContentType() string {
	return "application/json"
}

func (j jsonCodecImpl) GetName() string {
	return "json"
}
