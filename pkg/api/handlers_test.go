package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/borshkit/pkg/registry"
	"github.com/ssargent/borshkit/pkg/storage"
)

const (
	testAPIKey   = "test-key"
	joinQuizHex  = "00e1f505000000001027000000000000"
	joinQuizJSON = `{"bet":100000000,"fee":10000}`
)

// setupTestServer creates a server backed by a temporary payload store.
func setupTestServer(t *testing.T, config ServerConfig) (*Server, http.Handler) {
	t.Helper()

	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	store, err := storage.Open(t.TempDir(), reg)
	if err != nil {
		t.Fatalf("Failed to open payload store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if config.APIKey == "" {
		config.APIKey = testAPIKey
	}
	server := NewServer(reg, store, config, NewMetrics(prometheus.NewRegistry()), nil)
	return server, server.Routes()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()

	response := APIResponse{Data: data}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return response
}

func TestServer_handleHealth(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	w := doRequest(t, h, "GET", "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var data map[string]interface{}
	response := decodeResponse(t, w, &data)
	if !response.Success {
		t.Error("Expected success to be true")
	}
	if data["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", data["status"])
	}
	if data["schemas"] != float64(4) {
		t.Errorf("Expected 4 schemas, got %v", data["schemas"])
	}
}

func TestServer_RequiresAPIKey(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestServer_handleSchemas(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	t.Run("list", func(t *testing.T) {
		var infos []SchemaInfo
		w := doRequest(t, h, "GET", "/api/v1/schemas", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		decodeResponse(t, w, &infos)

		sizes := map[string]int{}
		for _, info := range infos {
			sizes[info.Name] = info.Size
		}
		if sizes[registry.JoinQuiz] != 16 || sizes[registry.ScoreEntry] != 40 {
			t.Errorf("Unexpected schema sizes: %v", sizes)
		}
	})

	t.Run("nested offsets", func(t *testing.T) {
		var info SchemaInfo
		w := doRequest(t, h, "GET", "/api/v1/schemas/"+registry.JoinQuizInstruction, "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		decodeResponse(t, w, &info)

		if info.Size != 17 || len(info.Fields) != 2 {
			t.Fatalf("Unexpected layout: %+v", info)
		}
		data := info.Fields[1]
		if data.Type != registry.JoinQuiz || data.Offset != 1 || data.Width != 16 {
			t.Errorf("Unexpected nested field: %+v", data)
		}
		if fee := data.Fields[1]; fee.Name != "fee" || fee.Offset != 9 || fee.Type != "u64" {
			t.Errorf("Unexpected fee field: %+v", fee)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		w := doRequest(t, h, "GET", "/api/v1/schemas/nope", "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestServer_handleDecode(t *testing.T) {
	tests := []struct {
		name           string
		config         ServerConfig
		path           string
		body           string
		contentType    string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "hex body",
			path:           "/api/v1/decode/join_quiz",
			body:           joinQuizHex,
			expectedStatus: http.StatusOK,
			expectedBody:   `"consumed":16,"record":` + joinQuizJSON,
		},
		{
			name:           "prefixed hex with newline",
			path:           "/api/v1/decode/join_quiz",
			body:           "0x" + joinQuizHex + "\n",
			expectedStatus: http.StatusOK,
			expectedBody:   `"record":` + joinQuizJSON,
		},
		{
			name:           "raw bytes with trailing byte",
			path:           "/api/v1/decode/join_quiz",
			body:           string(mustHex(t, joinQuizHex+"ff")),
			contentType:    contentTypeBinary,
			expectedStatus: http.StatusOK,
			expectedBody:   `"consumed":16`,
		},
		{
			name:           "strict rejects trailing byte",
			path:           "/api/v1/decode/join_quiz?strict=true",
			body:           joinQuizHex + "ff",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "trailing bytes: consumed 16 of 17",
		},
		{
			name:           "server default strict can be relaxed",
			config:         ServerConfig{Strict: true},
			path:           "/api/v1/decode/join_quiz?strict=false",
			body:           joinQuizHex + "ff",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "server default strict",
			config:         ServerConfig{Strict: true},
			path:           "/api/v1/decode/join_quiz",
			body:           joinQuizHex + "ff",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "nested record",
			path:           "/api/v1/decode/join_quiz_instruction",
			body:           "01" + joinQuizHex,
			expectedStatus: http.StatusOK,
			expectedBody:   `"record":{"instruction":1,"data":` + joinQuizJSON + `}`,
		},
		{
			name:           "truncated",
			path:           "/api/v1/decode/join_quiz",
			body:           "00e1f505",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `truncated input at field \"bet\" offset 0`,
		},
		{
			name:           "invalid hex",
			path:           "/api/v1/decode/join_quiz",
			body:           "zz",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid hex payload",
		},
		{
			name:           "invalid strict parameter",
			path:           "/api/v1/decode/join_quiz?strict=maybe",
			body:           joinQuizHex,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown schema",
			path:           "/api/v1/decode/nope",
			body:           joinQuizHex,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "body too large",
			config:         ServerConfig{MaxInputSize: 8},
			path:           "/api/v1/decode/join_quiz",
			body:           joinQuizHex,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := setupTestServer(t, tt.config)

			headers := map[string]string{}
			if tt.contentType != "" {
				headers["Content-Type"] = tt.contentType
			}
			w := doRequest(t, h, "POST", tt.path, tt.body, headers)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedBody != "" && !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %s", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestServer_handleDecodeMsgpack(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	w := doRequest(t, h, "POST", "/api/v1/decode/join_quiz_instruction", "01"+joinQuizHex,
		map[string]string{"Accept": contentTypeMsgpack})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeMsgpack {
		t.Errorf("Expected msgpack content type, got %s", ct)
	}

	var out map[string]interface{}
	if err := msgpack.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode msgpack: %v", err)
	}
	record := out["record"].(map[string]interface{})
	data := record["data"].(map[string]interface{})
	if fmt.Sprint(data["bet"]) != "100000000" || fmt.Sprint(data["fee"]) != "10000" {
		t.Errorf("Unexpected record: %v", record)
	}
	if fmt.Sprint(out["consumed"]) != "17" {
		t.Errorf("Expected consumed 17, got %v", out["consumed"])
	}
}

func TestServer_handleEncode(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
		expectedHex    string
		expectedError  string
	}{
		{
			name:           "join quiz",
			path:           "/api/v1/encode/join_quiz",
			body:           joinQuizJSON,
			expectedStatus: http.StatusOK,
			expectedHex:    joinQuizHex,
		},
		{
			name:           "u64 above 2^53",
			path:           "/api/v1/encode/join_quiz",
			body:           `{"bet":18446744073709551615,"fee":0}`,
			expectedStatus: http.StatusOK,
			expectedHex:    "ffffffffffffffff0000000000000000",
		},
		{
			name:           "nested",
			path:           "/api/v1/encode/join_quiz_instruction",
			body:           `{"instruction":1,"data":` + joinQuizJSON + `}`,
			expectedStatus: http.StatusOK,
			expectedHex:    "01" + joinQuizHex,
		},
		{
			name:           "bytes as hex",
			path:           "/api/v1/encode/score_entry",
			body:           `{"player":"0x` + strings.Repeat("ab", 32) + `","score":7}`,
			expectedStatus: http.StatusOK,
			expectedHex:    strings.Repeat("ab", 32) + "0700000000000000",
		},
		{
			name:           "missing field",
			path:           "/api/v1/encode/join_quiz",
			body:           `{"bet":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  `missing field \"fee\"`,
		},
		{
			name:           "out of range",
			path:           "/api/v1/encode/join_quiz_instruction",
			body:           `{"instruction":256,"data":` + joinQuizJSON + `}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative unsigned",
			path:           "/api/v1/encode/join_quiz",
			body:           `{"bet":-1,"fee":0}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "type mismatch",
			path:           "/api/v1/encode/join_quiz",
			body:           `{"bet":"lots","fee":0}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			path:           "/api/v1/encode/join_quiz",
			body:           `{"bet":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid JSON",
		},
		{
			name:           "unknown schema",
			path:           "/api/v1/encode/nope",
			body:           `{}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := setupTestServer(t, ServerConfig{})

			w := doRequest(t, h, "POST", tt.path, tt.body, map[string]string{"Content-Type": contentTypeJSON})
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedHex != "" {
				var out EncodeResponse
				decodeResponse(t, w, &out)
				if out.Hex != tt.expectedHex || out.Size != len(tt.expectedHex)/2 {
					t.Errorf("Expected %s, got %+v", tt.expectedHex, out)
				}
			}
			if tt.expectedError != "" && !strings.Contains(w.Body.String(), tt.expectedError) {
				t.Errorf("Expected error containing %q, got %s", tt.expectedError, w.Body.String())
			}
		})
	}
}

func TestServer_handleEncodeBinary(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	w := doRequest(t, h, "POST", "/api/v1/encode/join_quiz", joinQuizJSON,
		map[string]string{"Accept": contentTypeBinary})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if got := hex.EncodeToString(w.Body.Bytes()); got != joinQuizHex {
		t.Errorf("Expected %s, got %s", joinQuizHex, got)
	}
}

func TestServer_Records(t *testing.T) {
	server, h := setupTestServer(t, ServerConfig{})

	// Store
	w := doRequest(t, h, "POST", "/api/v1/records/join_quiz", joinQuizHex, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var stored StoredResponse
	decodeResponse(t, w, &stored)
	if stored.ID == "" || stored.Size != 16 {
		t.Fatalf("Unexpected store response: %+v", stored)
	}

	if got := testutil.ToFloat64(server.metrics.storedPayloads.WithLabelValues("join_quiz")); got != 1 {
		t.Errorf("Expected stored payload gauge 1, got %v", got)
	}

	// List
	var ids []string
	w = doRequest(t, h, "GET", "/api/v1/records/join_quiz", "", nil)
	decodeResponse(t, w, &ids)
	if len(ids) != 1 || ids[0] != stored.ID {
		t.Errorf("Expected [%s], got %v", stored.ID, ids)
	}

	// Get
	w = doRequest(t, h, "GET", "/api/v1/records/join_quiz/"+stored.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"hex":"`+joinQuizHex+`"`) || !strings.Contains(body, `"record":`+joinQuizJSON) {
		t.Errorf("Unexpected record response: %s", body)
	}

	// Other schemas do not see it
	w = doRequest(t, h, "GET", "/api/v1/records/score_entry/"+stored.ID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	// Delete
	w = doRequest(t, h, "DELETE", "/api/v1/records/join_quiz/"+stored.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w = doRequest(t, h, "GET", "/api/v1/records/join_quiz/"+stored.ID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
	w = doRequest(t, h, "DELETE", "/api/v1/records/join_quiz/"+stored.ID, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

func TestServer_RecordsRejectInvalidInput(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"trailing bytes", "POST", "/api/v1/records/join_quiz", joinQuizHex + "00", http.StatusBadRequest},
		{"truncated", "POST", "/api/v1/records/join_quiz", "00", http.StatusBadRequest},
		{"unknown schema", "POST", "/api/v1/records/nope", joinQuizHex, http.StatusNotFound},
		{"list unknown schema", "GET", "/api/v1/records/nope", "", http.StatusNotFound},
		{"bad id", "GET", "/api/v1/records/join_quiz/not-a-ksuid", "", http.StatusBadRequest},
		{"delete bad id", "DELETE", "/api/v1/records/join_quiz/not-a-ksuid", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, tt.method, tt.path, tt.body, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestServer_RecordsWithoutStore(t *testing.T) {
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	h := NewServer(reg, nil, ServerConfig{APIKey: testAPIKey}, nil, nil).Routes()

	w := doRequest(t, h, "POST", "/api/v1/records/join_quiz", joinQuizHex, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	// Decoding still works without a store or metrics.
	w = doRequest(t, h, "POST", "/api/v1/decode/join_quiz", joinQuizHex, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestServer_CodecMetrics(t *testing.T) {
	server, h := setupTestServer(t, ServerConfig{})

	doRequest(t, h, "POST", "/api/v1/decode/join_quiz", joinQuizHex, nil)
	doRequest(t, h, "POST", "/api/v1/decode/join_quiz", "00", nil)

	m := server.metrics
	if got := testutil.ToFloat64(m.codecOperationsTotal.WithLabelValues("decode", "join_quiz", statusSuccess)); got != 1 {
		t.Errorf("Expected 1 successful decode, got %v", got)
	}
	if got := testutil.ToFloat64(m.codecOperationsTotal.WithLabelValues("decode", "join_quiz", statusError)); got != 1 {
		t.Errorf("Expected 1 failed decode, got %v", got)
	}
	if got := testutil.ToFloat64(m.decodedBytesTotal.WithLabelValues("join_quiz")); got != 16 {
		t.Errorf("Expected 16 decoded bytes, got %v", got)
	}
	if got := testutil.ToFloat64(m.authRequestsTotal.WithLabelValues(statusSuccess)); got != 2 {
		t.Errorf("Expected 2 authenticated requests, got %v", got)
	}
}

func TestServer_RefreshStoredPayloads(t *testing.T) {
	server, h := setupTestServer(t, ServerConfig{})

	for range 3 {
		doRequest(t, h, "POST", "/api/v1/records/score_entry", strings.Repeat("00", 40), nil)
	}
	server.metrics.SetStoredPayloads("score_entry", 0)

	server.refreshStoredPayloads(context.Background())

	if got := testutil.ToFloat64(server.metrics.storedPayloads.WithLabelValues("score_entry")); got != 3 {
		t.Errorf("Expected 3 stored payloads, got %v", got)
	}
}

func TestServer_Swagger(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	for path, want := range map[string]string{
		"/swagger/index.html":   "swagger-ui",
		"/swagger/swagger.json": `"title": "borsh REST API"`,
	} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
			continue
		}
		body, _ := io.ReadAll(w.Body)
		if !strings.Contains(string(body), want) {
			t.Errorf("%s: expected body to contain %q", path, want)
		}
	}

	req := httptest.NewRequest("GET", "/swagger/other", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{joinQuizHex, joinQuizHex, false},
		{"0x" + joinQuizHex, joinQuizHex, false},
		{"  0XAB\n", "ab", false},
		{"", "", false},
		{"abc", "", true},
		{"0xzz", "", true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && hex.EncodeToString(got) != tt.want {
			t.Errorf("ParseHex(%q) = %x, want %s", tt.input, got, tt.want)
		}
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}
