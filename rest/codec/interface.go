package codec

import (
	"fmt"
	"mime"
	"sort"
	"strings"
)

// DefaultName is the codec used when no negotiation information is present.
const DefaultName = "json"

// ICodec is the interface for all request/response body codecs.
type ICodec interface {
	// Marshal encodes v into a byte slice
	// It returns the encoded bytes and an error if any
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes data into v
	// It takes the encoded bytes and a pointer to the target value
	// It returns an error if any
	Unmarshal(data []byte, v any) error
	// ContentType returns the MIME type the codec handles
	ContentType() string
	// GetName returns the name of the codec (e.g. "json")
	GetName() string
}

// --------------------------------------------------------------------------
// Codec Registry
// --------------------------------------------------------------------------

var factories = map[string]func() ICodec{
	"json":    NewJSONCodec,
	"msgpack": NewMsgpackCodec,
	"gob":     NewGOBCodec,
}

var byContentType = map[string]func() ICodec{
	"application/json":    NewJSONCodec,
	"application/msgpack": NewMsgpackCodec,
	"application/gob":     NewGOBCodec,
}

// Names returns the supported codec names in stable order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCodec returns the codec with the given name. An empty name selects the
// default codec.
func NewCodec(name string) (ICodec, error) {
	if name == "" {
		name = DefaultName
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// ForContentType returns the codec handling the given MIME type. Media type
// parameters (charset and the like) are ignored. An empty content type
// selects the default codec.
func ForContentType(contentType string) (ICodec, error) {
	if contentType == "" {
		return NewCodec(DefaultName)
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("malformed content type %q: %w", contentType, err)
	}

	factory, ok := byContentType[mediaType]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
	return factory(), nil
}
