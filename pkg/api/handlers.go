package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/borshkit/pkg/codec"
)

var errNoStore = errors.New("payload store not configured")

// Server holds the API server state
type Server struct {
	schemas SchemaSource
	store   PayloadStore
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server. store may be nil, in which case the
// record endpoints answer 503.
func NewServer(schemas SchemaSource, store PayloadStore, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		schemas: schemas,
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"schemas": len(s.schemas.Names()),
		"storage": s.store != nil,
	})
}

// handleListSchemas godoc
//
//	@Summary		List schemas
//	@Description	Describe every registered schema layout
//	@Tags			schemas
//	@Produce		json
//	@Success		200	{array}		SchemaInfo
//	@Security		ApiKeyAuth
//	@Router			/schemas [get]
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	names := s.schemas.Names()
	infos := make([]SchemaInfo, 0, len(names))
	for _, name := range names {
		schema, err := s.schemas.Lookup(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		infos = append(infos, DescribeSchema(schema))
	}
	sendSuccess(w, infos)
}

// handleGetSchema godoc
//
//	@Summary		Get a schema
//	@Description	Describe one schema layout with field offsets
//	@Tags			schemas
//	@Produce		json
//	@Param			name	path		string	true	"Schema name"
//	@Success		200		{object}	SchemaInfo
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/schemas/{name} [get]
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.schemas.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sendSuccess(w, DescribeSchema(schema))
}

// handleDecode godoc
//
//	@Summary		Decode a payload
//	@Description	Decode raw bytes (application/octet-stream) or hex text against a schema
//	@Tags			codec
//	@Accept			octet-stream,plain
//	@Produce		json,x-msgpack
//	@Param			schema	path		string	true	"Schema name"
//	@Param			strict	query		bool	false	"Reject trailing bytes"
//	@Param			body	body		string	true	"Payload"
//	@Success		200		{object}	DecodeResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		413		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/decode/{schema} [post]
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	schema, err := s.schemas.Lookup(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	mode, err := s.mode(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := s.readPayload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := codec.NewDriver(mode).Decode(schema, payload)
	if err != nil {
		s.metrics.RecordDecode(name, 0, false)
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordDecode(name, rec.Consumed(), true)

	if wantsMsgpack(r) {
		sendMsgpack(w, map[string]interface{}{
			"schema":   name,
			"consumed": rec.Consumed(),
			"record":   rec.Map(),
		})
		return
	}
	sendSuccess(w, DecodeResponse{Schema: name, Consumed: rec.Consumed(), Record: rec})
}

// handleEncode godoc
//
//	@Summary		Encode a record
//	@Description	Encode a JSON object of field values; nested records are nested objects
//	@Tags			codec
//	@Accept			json
//	@Produce		json,octet-stream
//	@Param			schema	path		string					true	"Schema name"
//	@Param			body	body		map[string]interface{}	true	"Field values"
//	@Success		200		{object}	EncodeResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/encode/{schema} [post]
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	schema, err := s.schemas.Lookup(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	values, err := s.readValues(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := codec.Encode(schema, codec.Map(values))
	s.metrics.RecordEncode(name, err == nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if accepts(r, contentTypeBinary) {
		sendBinary(w, data)
		return
	}
	sendSuccess(w, EncodeResponse{Schema: name, Hex: hex.EncodeToString(data), Size: len(data)})
}

// handlePutRecord godoc
//
//	@Summary		Store a payload
//	@Description	Validate a payload by strict decoding and store it
//	@Tags			records
//	@Accept			octet-stream,plain
//	@Produce		json
//	@Param			schema	path		string	true	"Schema name"
//	@Param			body	body		string	true	"Payload"
//	@Success		200		{object}	StoredResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/records/{schema} [post]
func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		sendError(w, errNoStore.Error(), http.StatusServiceUnavailable)
		return
	}

	name := chi.URLParam(r, "schema")
	schema, err := s.schemas.Lookup(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	payload, err := s.readPayload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Stored payloads always match their schema exactly.
	rec, err := codec.DecodeStrict(schema, payload)
	if err != nil {
		s.metrics.RecordDecode(name, 0, false)
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordDecode(name, rec.Consumed(), true)

	id, err := s.store.Put(r.Context(), name, payload)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.AddStoredPayloads(name, 1)
	s.logger.Debug("stored payload", "schema", name, "id", id.String(), "size", len(payload))

	sendSuccess(w, StoredResponse{ID: id.String(), Schema: name, Size: len(payload)})
}

// handleListRecords godoc
//
//	@Summary		List stored payloads
//	@Description	List payload ids of a schema, oldest first
//	@Tags			records
//	@Produce		json
//	@Param			schema	path		string	true	"Schema name"
//	@Success		200		{array}		string
//	@Security		ApiKeyAuth
//	@Router			/records/{schema} [get]
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		sendError(w, errNoStore.Error(), http.StatusServiceUnavailable)
		return
	}

	name := chi.URLParam(r, "schema")
	if _, err := s.schemas.Lookup(name); err != nil {
		s.fail(w, r, err)
		return
	}

	ids, err := s.store.List(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	sendSuccess(w, out)
}

// handleGetRecord godoc
//
//	@Summary		Get a stored payload
//	@Description	Fetch a stored payload and decode it against its schema
//	@Tags			records
//	@Produce		json,x-msgpack
//	@Param			schema	path		string	true	"Schema name"
//	@Param			id		path		string	true	"Payload id"
//	@Success		200		{object}	RecordResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/records/{schema}/{id} [get]
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		sendError(w, errNoStore.Error(), http.StatusServiceUnavailable)
		return
	}

	name := chi.URLParam(r, "schema")
	schema, err := s.schemas.Lookup(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return
	}

	entry, err := s.store.Get(r.Context(), name, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := codec.DecodeStrict(schema, entry.Payload)
	if err != nil {
		// The payload was valid when stored, so the schema has changed since.
		s.fail(w, r, fmt.Errorf("stored payload no longer matches schema %q: %v", name, err))
		return
	}

	if wantsMsgpack(r) {
		sendMsgpack(w, map[string]interface{}{
			"id":         entry.ID.String(),
			"schema":     name,
			"created_at": entry.CreatedAt,
			"payload":    entry.Payload,
			"record":     rec.Map(),
		})
		return
	}
	sendSuccess(w, RecordResponse{
		ID:        entry.ID.String(),
		Schema:    name,
		CreatedAt: entry.CreatedAt.UTC(),
		Hex:       hex.EncodeToString(entry.Payload),
		Record:    rec,
	})
}

// handleDeleteRecord godoc
//
//	@Summary		Delete a stored payload
//	@Tags			records
//	@Produce		json
//	@Param			schema	path		string	true	"Schema name"
//	@Param			id		path		string	true	"Payload id"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/records/{schema}/{id} [delete]
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		sendError(w, errNoStore.Error(), http.StatusServiceUnavailable)
		return
	}

	name := chi.URLParam(r, "schema")
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid record id", http.StatusBadRequest)
		return
	}

	if err := s.store.Delete(r.Context(), name, id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.AddStoredPayloads(name, -1)

	sendSuccess(w, map[string]string{"deleted": id.String()})
}

// fail logs err and answers with its mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	sendError(w, err.Error(), code)
}

// mode resolves the trailing-bytes mode from ?strict or the server default.
func (s *Server) mode(r *http.Request) (codec.Mode, error) {
	strict := s.config.Strict
	if raw := r.URL.Query().Get("strict"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return codec.Lenient, fmt.Errorf("invalid strict parameter %q", raw)
		}
		strict = v
	}
	if strict {
		return codec.Strict, nil
	}
	return codec.Lenient, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if s.config.MaxInputSize > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxInputSize)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return data, nil
}

// readPayload returns the request body as bytes. Octet-stream bodies are taken
// verbatim; anything else is parsed as hex text.
func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := s.readBody(w, r)
	if err != nil {
		return nil, err
	}
	if mediaType(r.Header.Get("Content-Type")) == contentTypeBinary {
		return body, nil
	}

	payload, err := ParseHex(string(body))
	if err != nil {
		return nil, badRequest(err)
	}
	return payload, nil
}

func (s *Server) readValues(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	body, err := s.readBody(w, r)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, badRequest(fmt.Errorf("invalid JSON in request body: %w", err))
	}
	return values, nil
}

// startMetricsUpdater refreshes the stored payload gauges until ctx is done.
func (s *Server) startMetricsUpdater(ctx context.Context, every time.Duration) {
	if s.store == nil || s.metrics == nil {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		s.refreshStoredPayloads(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) refreshStoredPayloads(ctx context.Context) {
	for _, name := range s.schemas.Names() {
		ids, err := s.store.List(ctx, name)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("failed to count payloads", "schema", name, "error", err)
			}
			return
		}
		s.metrics.SetStoredPayloads(name, len(ids))
	}
}

// ParseHex decodes hex text, ignoring surrounding whitespace and an optional 0x prefix.
func ParseHex(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

// requestError marks client mistakes that are not codec errors.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}

func accepts(r *http.Request, contentType string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if mediaType(strings.TrimSpace(part)) == contentType {
			return true
		}
	}
	return false
}

func wantsMsgpack(r *http.Request) bool {
	return accepts(r, contentTypeMsgpack)
}
