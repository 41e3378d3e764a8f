package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/hashicorp/go-cleanhttp"
	"gopkg.in/yaml.v3"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// HTTPClient overrides the client used to fetch URL sources.
	HTTPClient *http.Client
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithHTTPClient(c *http.Client) Option   { return func(s *Settings) { s.HTTPClient = c } }

// Load reads a Swagger 2.0 document from a filesystem path or an http/https
// URL and returns it as a read-only Document. OpenAPI 3.x input is accepted
// and converted down to 2.0 so the rest of the client only deals with one
// shape.
//
// Read failures are reported with ErrSpecLoad semantics, malformed or empty
// content with ErrSpecParse semantics.
func Load(ctx context.Context, source string, opts ...Option) (*Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, &SpecError{Code: LoadError, Message: "spec: source is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	raw, location, err := readSource(ctx, source, settings)
	if err != nil {
		return nil, err
	}
	return Parse(raw, location)
}

// Parse decodes raw document bytes. location is used for error messages and
// to pick the decoder: a .yaml or .yml suffix selects YAML, anything else
// must be JSON.
func Parse(raw []byte, location string) (*Document, error) {
	root, err := decodeRoot(raw, isYAMLLocation(location))
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}

	version, err := detectSpecVersion(root)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}

	var v2 *openapi2.T
	switch version {
	case 3:
		v2, err = convertV3ToV2(root)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v3→v2: %v", err), Location: location, Cause: err}
		}
	default:
		normalizeOperationKeys(root)
		v2, err = decodeV2(root)
		if err != nil {
			return nil, mapParseErr(err, location)
		}
	}

	doc := &Document{doc: v2, source: location}
	doc.index()
	return doc, nil
}

func readSource(ctx context.Context, source string, settings Settings) ([]byte, string, error) {
	// Classify input as URL or file path.
	u, uerr := url.Parse(source)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, source, &SpecError{Code: LoadError, Message: "spec: file:// URLs are not supported, pass a path instead", Location: source}
		}
		if scheme != "http" && scheme != "https" {
			return nil, source, &SpecError{Code: LoadError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: source}
		}
		raw, err := fetchWithRetry(ctx, source, settings)
		if err != nil {
			return nil, source, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", source, err), Location: source, Cause: err}
		}
		return raw, source, nil
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, source, &SpecError{Code: LoadError, Message: fmt.Sprintf("resolve path: %v", err), Location: source, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, abs, &SpecError{Code: LoadError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return raw, abs, nil
}

func isYAMLLocation(location string) bool {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Host != "" {
		location = u.Path
	}
	ext := strings.ToLower(filepath.Ext(location))
	return ext == ".yaml" || ext == ".yml"
}

// decodeRoot turns the document into a JSON-compatible tree. Numbers are kept
// as json.Number so re-encoding does not lose precision.
func decodeRoot(raw []byte, isYAML bool) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("spec: document is empty")
	}

	var tree any
	if isYAML {
		var y any
		if err := yaml.Unmarshal(trimmed, &y); err != nil {
			return nil, fmt.Errorf("parse spec: %w", err)
		}
		tree = jsonCompatible(y)
	} else {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&tree); err != nil {
			return nil, fmt.Errorf("parse spec: %w", err)
		}
		if dec.More() {
			return nil, errors.New("parse spec: unexpected data after top-level value")
		}
	}

	if tree == nil {
		return nil, errors.New("spec: document is null")
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("spec: document must be an object, got %T", tree)
	}
	return root, nil
}

// jsonCompatible rewrites YAML-decoded values so encoding/json can marshal
// them: mappings with non-string keys (such as unquoted response codes)
// become string-keyed maps.
func jsonCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = jsonCompatible(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonCompatible(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = jsonCompatible(item)
		}
		return val
	default:
		return v
	}
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
// A document without either marker but with a paths object is treated as 2.
func detectSpecVersion(root map[string]any) (int, error) {
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		// An unquoted `swagger: 2.0` in YAML arrives as a number.
		if s := strings.TrimSpace(fmt.Sprint(v)); s == "2" || strings.HasPrefix(s, "2.") {
			root["swagger"] = "2.0"
			return 2, nil
		}
		return 0, fmt.Errorf("spec: unsupported swagger version %v", v)
	}
	if _, ok := root["paths"].(map[string]any); ok {
		return 2, nil
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'swagger: 2.0' or 'openapi: 3.x')")
}

func decodeV2(root map[string]any) (*openapi2.T, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return &v2, nil
}

func convertV3ToV2(root map[string]any) (*openapi2.T, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	doc3, err := loader.LoadFromData(data)
	if err != nil {
		return nil, err
	}
	return openapi2conv.FromV3(doc3)
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := settings.HTTPClient
	if client == nil {
		client = cleanhttp.DefaultClient()
		client.Timeout = settings.HTTPTimeout
	}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		// Backoff before next attempt
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs a single GET. The bool result reports whether the
// failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, err != nil, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func mapParseErr(err error, location string) error {
	return &SpecError{Code: ParseError, Message: fmt.Sprintf("decode swagger document: %v", err), Location: location, JSONPointer: extractJSONPointer(err), Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return "#/" + strings.ReplaceAll(te.Field, ".", "/")
	}
	// Fallback: parse from error message if a pointer literal appears.
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
