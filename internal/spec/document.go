package spec

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
)

// Document is a loaded Swagger 2.0 description. It is read-only once built,
// so one value can back any number of concurrent lookups.
type Document struct {
	doc    *openapi2.T
	source string
	// byOperationID maps operationId to its (path, method) pair; the first
	// declaration in sorted path order wins.
	byOperationID map[string]operationKey
}

type operationKey struct {
	path   string
	method HttpMethod
}

// NewDocument wraps an already decoded document.
func NewDocument(doc *openapi2.T) (*Document, error) {
	if doc == nil {
		return nil, &SpecError{Code: ParseError, Message: "spec: nil document"}
	}
	d := &Document{doc: doc}
	d.index()
	return d, nil
}

func (d *Document) index() {
	d.byOperationID = make(map[string]operationKey)
	for _, p := range d.sortedPaths() {
		item := d.doc.Paths[p]
		for _, pair := range operationsOf(item) {
			id := strings.TrimSpace(pair.op.OperationID)
			if id == "" {
				continue
			}
			if _, seen := d.byOperationID[id]; seen {
				continue
			}
			d.byOperationID[id] = operationKey{path: p, method: pair.method}
		}
	}
}

// Source is the file path or URL the document was loaded from, if any.
func (d *Document) Source() string { return d.source }

// Info returns the document's info block.
func (d *Document) Info() openapi3.Info { return d.doc.Info }

// Host returns the declared host, which may be empty.
func (d *Document) Host() string { return d.doc.Host }

// BasePath returns the declared basePath, which may be empty.
func (d *Document) BasePath() string { return d.doc.BasePath }

// Schemes returns a copy of the declared transfer protocols.
func (d *Document) Schemes() []string { return append([]string(nil), d.doc.Schemes...) }

// Paths returns every declared path template in sorted order.
func (d *Document) Paths() []string { return d.sortedPaths() }

// Lookup returns the raw operation node for path and method. The path match
// is exact; the method is compared case-insensitively.
func (d *Document) Lookup(path, method string) (*openapi2.Operation, *openapi2.PathItem, error) {
	m := normalizeMethod(method)
	item := d.doc.Paths[path]
	if item == nil {
		return nil, nil, &OperationNotFoundError{Path: path, Method: strings.ToUpper(string(m))}
	}
	op := operationFor(item, m)
	if op == nil {
		return nil, nil, &OperationNotFoundError{Path: path, Method: strings.ToUpper(string(m))}
	}
	return op, item, nil
}

// FindOperationID returns the path and method declaring operationId id.
func (d *Document) FindOperationID(id string) (string, string, error) {
	key, ok := d.byOperationID[strings.TrimSpace(id)]
	if !ok {
		return "", "", &OperationNotFoundError{OperationID: id}
	}
	return key.path, string(key.method), nil
}

// parameterDefinition resolves a "#/parameters/<name>" reference.
func (d *Document) parameterDefinition(ref string) *openapi2.Parameter {
	const prefix = "#/parameters/"
	if !strings.HasPrefix(ref, prefix) {
		return nil
	}
	return d.doc.Parameters[strings.TrimPrefix(ref, prefix)]
}

func (d *Document) sortedPaths() []string {
	keys := make([]string, 0, len(d.doc.Paths))
	for p, item := range d.doc.Paths {
		if item == nil {
			continue
		}
		keys = append(keys, p)
	}
	sort.Strings(keys)
	return keys
}

func normalizeMethod(method string) HttpMethod {
	m := strings.ToLower(strings.TrimSpace(method))
	if m == "" {
		return GET
	}
	return HttpMethod(m)
}

type methodOperation struct {
	method HttpMethod
	op     *openapi2.Operation
}

// operationsOf lists the operations of a path item in a stable order.
func operationsOf(item *openapi2.PathItem) []methodOperation {
	if item == nil {
		return nil
	}
	ops := []methodOperation{
		{GET, item.Get},
		{PUT, item.Put},
		{POST, item.Post},
		{DELETE, item.Delete},
		{OPTIONS, item.Options},
		{HEAD, item.Head},
		{PATCH, item.Patch},
	}
	out := ops[:0]
	for _, pair := range ops {
		if pair.op != nil {
			out = append(out, pair)
		}
	}
	return out
}

func operationFor(item *openapi2.PathItem, method HttpMethod) *openapi2.Operation {
	switch method {
	case GET:
		return item.Get
	case PUT:
		return item.Put
	case POST:
		return item.Post
	case DELETE:
		return item.Delete
	case OPTIONS:
		return item.Options
	case HEAD:
		return item.Head
	case PATCH:
		return item.Patch
	}
	return nil
}
