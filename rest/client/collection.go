package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/adrodb/adrodb/rest/common"
	"net/http"
	"net/url"
)

// RemoteCollection mirrors the collection.Binding surface over the REST
// interface. Handles are cheap and safe for concurrent use; their
// concurrency semantics end at the server, which passes every call straight
// through to the engine.
type RemoteCollection struct {
	client *Client
	name   string
}

// Name returns the collection name the handle addresses.
func (rc *RemoteCollection) Name() string {
	return rc.name
}

// --------------------------------------------------------------------------
// Collection Operations (docu see collection.Binding)
// --------------------------------------------------------------------------

func (rc *RemoteCollection) Set(ctx context.Context, key string, value collection.Scalar) error {
	req, err := common.NewItemRequest(value)
	if err != nil {
		return rc.wrap("set", err)
	}
	return rc.wrap("set", rc.client.do(ctx, http.MethodPut, rc.itemPath(key, ""), req, nil))
}

func (rc *RemoteCollection) Get(ctx context.Context, key string) (collection.Scalar, error) {
	var resp common.ItemResponse
	if err := rc.client.do(ctx, http.MethodGet, rc.itemPath(key, ""), nil, &resp); err != nil {
		return collection.Scalar{}, rc.wrap("get", err)
	}
	value, err := resp.Scalar()
	if err != nil {
		return collection.Scalar{}, rc.wrap("get", err)
	}
	return value, nil
}

func (rc *RemoteCollection) GetText(ctx context.Context, key string) (string, error) {
	value, err := rc.getAs(ctx, key, collection.ScalarText)
	if err != nil {
		return "", err
	}
	return value.AsText()
}

func (rc *RemoteCollection) GetInteger(ctx context.Context, key string) (int64, error) {
	value, err := rc.getAs(ctx, key, collection.ScalarInteger)
	if err != nil {
		return 0, err
	}
	return value.AsInteger()
}

func (rc *RemoteCollection) GetFloat(ctx context.Context, key string) (float64, error) {
	value, err := rc.getAs(ctx, key, collection.ScalarFloat)
	if err != nil {
		return 0, err
	}
	return value.AsFloat()
}

func (rc *RemoteCollection) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := rc.getAs(ctx, key, collection.ScalarBool)
	if err != nil {
		return false, err
	}
	return value.AsBool()
}

func (rc *RemoteCollection) Has(ctx context.Context, key string) (bool, error) {
	err := rc.client.do(ctx, http.MethodHead, rc.itemPath(key, ""), nil, nil)
	if err == nil {
		return true, nil
	}
	if collection.CodeOf(err) == collection.CodeNotFound {
		return false, nil
	}
	return false, rc.wrap("has", err)
}

func (rc *RemoteCollection) Remove(ctx context.Context, key string) (int64, error) {
	var resp common.RemoveResponse
	if err := rc.client.do(ctx, http.MethodDelete, rc.itemPath(key, ""), nil, &resp); err != nil {
		return 0, rc.wrap("remove", err)
	}
	return resp.Removed, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// getAs asks the server to coerce before answering, so the caller sees the
// same type_mismatch classification a local binding would produce.
func (rc *RemoteCollection) getAs(ctx context.Context, key string, kind collection.ScalarKind) (collection.Scalar, error) {
	var resp common.ItemResponse
	if err := rc.client.do(ctx, http.MethodGet, rc.itemPath(key, kind.String()), nil, &resp); err != nil {
		return collection.Scalar{}, rc.wrap("get", err)
	}
	value, err := resp.Scalar()
	if err != nil {
		return collection.Scalar{}, rc.wrap("get", err)
	}
	return value, nil
}

func (rc *RemoteCollection) itemPath(key, kindName string) string {
	path := fmt.Sprintf("/api/v1/collections/%s/items/%s",
		url.PathEscape(rc.name), url.PathEscape(key))
	if kindName != "" {
		path += "?type=" + url.QueryEscape(kindName)
	}
	return path
}

// wrap stamps collection and operation context onto classified errors, so a
// remote failure reads like a local one.
func (rc *RemoteCollection) wrap(op string, err error) error {
	var cerr *collection.Error
	if errors.As(err, &cerr) {
		if cerr.Collection == "" {
			cerr.Collection = rc.name
		}
		if cerr.Op == "" {
			cerr.Op = op
		}
	}
	return err
}
