package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleSwaggerJSON = `{
  "swagger": "2.0",
  "info": {"title": "Sample Network API", "version": "2.1"},
  "host": "api.example.net",
  "basePath": "/nms/api/v2.1",
  "parameters": {
    "limitParam": {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 100}
  },
  "paths": {
    "/devices": {
      "get": {
        "operationId": "listDevices",
        "tags": ["devices"],
        "summary": "List devices",
        "parameters": [
          {"name": "type", "in": "query", "type": "string", "enum": ["olt", "onu"]},
          {"$ref": "#/parameters/limitParam"}
        ],
        "responses": {"200": {"description": "ok"}}
      },
      "post": {
        "operationId": "createDevice",
        "tags": ["devices", "write"],
        "consumes": ["application/json"],
        "parameters": [
          {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
        ],
        "responses": {"201": {"description": "created"}}
      }
    },
    "/v1/network/regions/{regionName}/markets/{marketName}/sites": {
      "parameters": [
        {"name": "regionName", "in": "path", "type": "string"}
      ],
      "GET": {
        "operationId": "listSites",
        "tags": ["network"],
        "deprecated": true,
        "parameters": [
          {"name": "marketName", "in": "path", "required": true, "type": "string"},
          {"$ref": "#/parameters/missing"}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func mustParse(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(sampleSwaggerJSON), "sample.json")
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	return doc
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "api.json", sampleSwaggerJSON)

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Info().Title != "Sample Network API" {
		t.Fatalf("unexpected title %q", doc.Info().Title)
	}
	if doc.BasePath() != "/nms/api/v2.1" || doc.Host() != "api.example.net" {
		t.Fatalf("unexpected host/basePath %q %q", doc.Host(), doc.BasePath())
	}
	if doc.Source() != path {
		t.Fatalf("source mismatch: %q", doc.Source())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, ErrSpecLoad) {
		t.Fatalf("expected ErrSpecLoad, got %v", err)
	}
	if errors.Is(err, ErrSpecParse) {
		t.Fatalf("load error must not match ErrSpecParse")
	}
}

func TestLoad_EmptySource(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "   ")
	if !errors.Is(err, ErrSpecLoad) {
		t.Fatalf("expected ErrSpecLoad, got %v", err)
	}
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file:///etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != LoadError {
		t.Fatalf("expected LoadError, got %v", se.Code)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.json")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != LoadError {
		t.Fatalf("expected LoadError, got %v (%T)", err, err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	url := "http://127.0.0.1:1/spec.json"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, url, WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(10*time.Millisecond))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
	if !errors.Is(err, ErrSpecLoad) {
		t.Fatalf("network error should match ErrSpecLoad")
	}
}

func TestLoad_URLRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleSwaggerJSON))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/swagger.json", WithBackoffBase(time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 fetch attempts, got %d", got)
	}
	if len(doc.Paths()) != 2 {
		t.Fatalf("expected 2 paths, got %v", doc.Paths())
	}
}

func TestLoad_URLClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL+"/swagger.json", WithBackoffBase(time.Millisecond))
	if !errors.Is(err, ErrSpecLoad) {
		t.Fatalf("expected ErrSpecLoad, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single attempt for 404, got %d", got)
	}
}

func TestParse_BadContent(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":      "",
		"blank":      "  \n\t",
		"null":       "null",
		"malformed":  `{"swagger": "2.0", "paths": {`,
		"array":      `[1, 2, 3]`,
		"noVersion":  `{"info": {"title": "x"}}`,
		"badSwagger": `{"swagger": "1.2", "paths": {}}`,
		"trailing":   `{"swagger": "2.0"} {}`,
	}
	for name, content := range cases {
		content := content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(content), "doc.json")
			if err == nil {
				t.Fatalf("expected parse error")
			}
			if !errors.Is(err, ErrSpecParse) {
				t.Fatalf("expected ErrSpecParse, got %v", err)
			}
			if errors.Is(err, ErrSpecLoad) {
				t.Fatalf("parse error must not match ErrSpecLoad")
			}
		})
	}
}

func TestParse_YAML(t *testing.T) {
	t.Parallel()
	content := strings.TrimSpace(`
swagger: 2.0
info:
  title: YAML API
  version: "1"
paths:
  /items/{id}:
    Delete:
      operationId: deleteItem
      parameters:
        - name: id
          in: path
          type: integer
      responses:
        204:
          description: gone
`) + "\n"
	path := writeTempFile(t, "api.yaml", content)

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	op, err := Resolve(doc, "/items/{id}", "delete")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if op.OperationID != "deleteItem" {
		t.Fatalf("operationId mismatch: %q", op.OperationID)
	}
	if _, ok := op.Responses["204"]; !ok {
		t.Fatalf("expected numeric response code to survive, got %v", op.Responses)
	}
}

func TestParse_V3Converted(t *testing.T) {
	t.Parallel()
	content := `{
  "openapi": "3.0.0",
  "info": {"title": "V3", "version": "1.0.0"},
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "parameters": [{"name": "limit", "in": "query", "schema": {"type": "integer"}}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
	doc, err := Parse([]byte(content), "v3.json")
	if err != nil {
		t.Fatalf("parse v3: %v", err)
	}
	op, err := Resolve(doc, "/pets", "GET")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(op.Parameters) != 1 || op.Parameters[0].In != InQuery {
		t.Fatalf("unexpected parameters: %+v", op.Parameters)
	}
}
