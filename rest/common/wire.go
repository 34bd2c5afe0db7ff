package common

import (
	"github.com/adrodb/adrodb/lib/collection"
)

const (
	// HeaderErrorCode carries the wire error code of a failed request, so
	// callers can classify failures without decoding the body.
	HeaderErrorCode = "X-Adrodb-Error-Code"
	// HeaderRequestID traces a request across client, proxies and server.
	HeaderRequestID = "X-Request-Id"
)

// --------------------------------------------------------------------------
// Wire Structures
// --------------------------------------------------------------------------

// CollectionRequest asks the server to materialize a collection.
type CollectionRequest struct {
	Name string `json:"name" msgpack:"name"`
}

// CollectionResponse confirms a materialized collection.
type CollectionResponse struct {
	Name string `json:"name" msgpack:"name"`
}

// ItemRequest carries a value to store. The value always travels as text
// tagged with its scalar kind; an empty type means text.
type ItemRequest struct {
	Type  string `json:"type,omitempty" msgpack:"type,omitempty"`
	Value string `json:"value" msgpack:"value"`
}

// ItemResponse carries a stored value back to the caller, tagged with the
// kind it was read as.
type ItemResponse struct {
	Key   string `json:"key" msgpack:"key"`
	Type  string `json:"type" msgpack:"type"`
	Value string `json:"value" msgpack:"value"`
}

// RemoveResponse reports how many rows a remove affected (0 or 1).
type RemoveResponse struct {
	Removed int64 `json:"removed" msgpack:"removed"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Name    string `json:"name" msgpack:"name"`
	Status  string `json:"status" msgpack:"status"`
	Version string `json:"version" msgpack:"version"`
}

// ErrorResponse is the body of every non-2xx response. Code carries the
// stable wire form of the failure classification.
type ErrorResponse struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

// --------------------------------------------------------------------------
// Wire Factory Functions
// --------------------------------------------------------------------------

// NewItemRequest renders a scalar into its wire form.
func NewItemRequest(value collection.Scalar) (ItemRequest, error) {
	rendered, err := value.AsText()
	if err != nil {
		return ItemRequest{}, err
	}
	return ItemRequest{
		Type:  value.Kind().String(),
		Value: rendered,
	}, nil
}

// Scalar reconstructs the scalar carried by the request. An empty type
// defaults to text.
func (r ItemRequest) Scalar() (collection.Scalar, error) {
	return parseWireValue(r.Type, r.Value)
}

// NewItemResponse renders a read result into its wire form.
func NewItemResponse(key string, value collection.Scalar) (ItemResponse, error) {
	rendered, err := value.AsText()
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{
		Key:   key,
		Type:  value.Kind().String(),
		Value: rendered,
	}, nil
}

// Scalar reconstructs the scalar carried by the response.
func (r ItemResponse) Scalar() (collection.Scalar, error) {
	return parseWireValue(r.Type, r.Value)
}

// NewErrorResponse renders an error into its wire form using the
// classification walker, so clients can rebuild the typed failure.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    collection.CodeOf(err).String(),
		Message: err.Error(),
	}
}

// parseWireValue converts the tagged text rendering back into a scalar via
// the collection package's coercion point.
func parseWireValue(kindName, value string) (collection.Scalar, error) {
	if kindName == "" {
		return collection.Text(value), nil
	}

	kind, err := collection.ParseScalarKind(kindName)
	if err != nil {
		return collection.Scalar{}, err
	}
	return collection.Text(value).Coerce(kind)
}
