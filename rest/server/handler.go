package server

import (
	"context"
	"github.com/VictoriaMetrics/metrics"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/adrodb/adrodb/rest/codec"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"io"
	"net/http"
)

// maxBodySize caps request bodies. Values are scalars, not blobs.
const maxBodySize = 1 << 20

// --------------------------------------------------------------------------
// Handler
// --------------------------------------------------------------------------

type handler struct {
	log        *zap.Logger
	db         *sqlx.DB
	store      *engine.Store
	autoCreate bool
	bindings   *xsync.MapOf[string, *collection.Binding]
	router     chi.Router
}

func (h *handler) buildRouter() {
	r := chi.NewRouter()

	r.Use(h.requestID)
	r.Use(h.logRequests)
	r.Use(captureMetrics)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/collections", h.handleCreateCollection)
		r.Put("/collections/{collection}/items/{key}", h.handleSetItem)
		r.Get("/collections/{collection}/items/{key}", h.handleGetItem)
		r.Head("/collections/{collection}/items/{key}", h.handleHasItem)
		r.Delete("/collections/{collection}/items/{key}", h.handleRemoveItem)
	})
	r.Get("/health", h.handleHealth)
	r.Get("/metrics", h.handleMetrics)

	h.router = r
}

// binding resolves the cached Binding for a collection name, creating it on
// first use. With AutoCreate the first access materializes the table,
// otherwise the binding only attaches and missing tables surface as
// not_initialized on the operation itself.
func (h *handler) binding(ctx context.Context, name string) (*collection.Binding, error) {
	if b, ok := h.bindings.Load(name); ok {
		return b, nil
	}

	coll, err := collection.New(name)
	if err != nil {
		return nil, err
	}

	var b *collection.Binding
	if h.autoCreate {
		b, err = coll.Materialize(ctx, h.db)
		if err != nil {
			return nil, err
		}
	} else {
		b = coll.BindExisting(h.db)
	}

	// Two racing requests may both build a binding. Materialize is
	// idempotent, so keeping the first stored one is safe either way.
	actual, _ := h.bindings.LoadOrStore(name, b)
	return actual, nil
}

// --------------------------------------------------------------------------
// Routes
// --------------------------------------------------------------------------

func (h *handler) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req common.CollectionRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	coll, err := collection.New(req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	binding, err := coll.Materialize(r.Context(), h.db)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.bindings.Store(req.Name, binding)

	h.respond(w, r, http.StatusCreated, common.CollectionResponse{Name: req.Name})
}

func (h *handler) handleSetItem(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	name := chi.URLParam(r, "collection")
	key := chi.URLParam(r, "key")

	var req common.ItemRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := req.Scalar()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	binding, err := h.binding(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := binding.Set(r.Context(), key, value); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := common.NewItemResponse(key, value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, resp)
}

func (h *handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	name := chi.URLParam(r, "collection")
	key := chi.URLParam(r, "key")

	binding, err := h.binding(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := binding.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// ?type= moves the coercion to the server, so clients in weakly typed
	// environments get the 422 instead of a value they cannot use.
	if kindName := r.URL.Query().Get("type"); kindName != "" {
		kind, err := collection.ParseScalarKind(kindName)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		value, err = value.Coerce(kind)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	resp, err := common.NewItemResponse(key, value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, resp)
}

func (h *handler) handleHasItem(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	name := chi.URLParam(r, "collection")
	key := chi.URLParam(r, "key")

	binding, err := h.binding(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	found, err := binding.Has(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeError(w, r, collection.NewError(collection.CodeNotFound, "no row for key"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	name := chi.URLParam(r, "collection")
	key := chi.URLParam(r, "key")

	binding, err := h.binding(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	removed, err := binding.Remove(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, common.RemoveResponse{Removed: removed})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := common.HealthResponse{
		Name:    common.ServiceName,
		Status:  "pass",
		Version: common.Version,
	}
	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	h.respond(w, r, status, resp)
}

func (h *handler) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	metrics.WritePrometheus(w, true)
}

// --------------------------------------------------------------------------
// Encoding Helpers
// --------------------------------------------------------------------------

// decode reads the request body with the codec named by Content-Type.
func (h *handler) decode(r *http.Request, v any) error {
	c, err := codec.ForContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	return c.Unmarshal(data, v)
}

// responseCodec picks the encoding for a response: the Accept header wins,
// then the request's own Content-Type, then the default codec.
func (h *handler) responseCodec(r *http.Request) codec.ICodec {
	if c, err := codec.ForContentType(r.Header.Get("Accept")); err == nil {
		return c
	}
	if c, err := codec.ForContentType(r.Header.Get("Content-Type")); err == nil {
		return c
	}
	c, _ := codec.NewCodec(codec.DefaultName)
	return c
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	c := h.responseCodec(r)
	data, err := c.Marshal(v)
	if err != nil {
		h.log.Error("marshal response", zap.Error(err))
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		h.log.Debug("write response", zap.Error(err))
	}
}

// writeError renders any failure as an ErrorResponse. Classified collection
// errors keep their wire code and mapped status, everything else (decode
// failures, unsupported codecs) answers 400 with code "invalid".
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := collection.CodeOf(err)

	var resp common.ErrorResponse
	var status int
	if code == collection.CodeUnknown {
		status = http.StatusBadRequest
		resp = common.ErrorResponse{Code: "invalid", Message: err.Error()}
	} else {
		status = statusForCode(code)
		resp = common.NewErrorResponse(err)
	}

	w.Header().Set(common.HeaderErrorCode, resp.Code)
	h.respond(w, r, status, resp)
}

// statusForCode maps collection error codes onto HTTP status codes.
func statusForCode(code collection.Code) int {
	switch code {
	case collection.CodeSchemaError:
		return http.StatusBadRequest
	case collection.CodeNotInitialized:
		return http.StatusNotFound
	case collection.CodeConstraintViolation:
		return http.StatusConflict
	case collection.CodeNotFound:
		return http.StatusNotFound
	case collection.CodeTypeMismatch:
		return http.StatusUnprocessableEntity
	case collection.CodeEngineFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
