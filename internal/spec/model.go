package spec

import (
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
)

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
)

// Location is where a parameter value is placed in a request.
type Location string

const (
	InPath     Location = "path"
	InQuery    Location = "query"
	InHeader   Location = "header"
	InFormData Location = "formData"
	InBody     Location = "body"
)

// Operation describes one (path, method) entry of the document. Optional
// fields stay nil when the document does not declare them, so an undeclared
// list can be told apart from a declared empty one.
type Operation struct {
	Path         string
	Method       HttpMethod
	OperationID  string
	Summary      string
	Description  string
	Tags         []string
	Parameters   []Parameter
	Responses    map[string]*openapi2.Response
	Deprecated   bool
	Consumes     []string
	Produces     []string
	Schemes      []string
	Security     *openapi2.SecurityRequirements
	ExternalDocs *openapi3.ExternalDocs

	// UnresolvedRefs lists parameter references that did not point at a
	// document-level parameter definition and were skipped.
	UnresolvedRefs []string
}

// Parameter describes one declared operation parameter. Constraint metadata
// is carried as declared and never enforced.
type Parameter struct {
	Name        string
	In          Location
	Description string
	Required    bool

	Type             string
	Format           string
	Schema           *openapi3.SchemaRef // body parameters only
	Items            *openapi3.SchemaRef
	CollectionFormat string
	AllowEmptyValue  bool
	Default          any

	Minimum      *float64
	Maximum      *float64
	ExclusiveMin bool
	ExclusiveMax bool
	MinLength    *uint64
	MaxLength    *uint64
	Pattern      string
	MinItems     *uint64
	MaxItems     *uint64
	UniqueItems  bool
	Enum         []any
	MultipleOf   *float64
}

// Key identifies a parameter within an operation.
func (p Parameter) Key() string { return paramKey(string(p.In), p.Name) }

// Parameter returns the first declared parameter with the given name and
// location.
func (o *Operation) Parameter(name string, in Location) (Parameter, bool) {
	for _, p := range o.Parameters {
		if p.Name == name && p.In == in {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParametersIn returns the declared parameters at one location, in
// declaration order.
func (o *Operation) ParametersIn(in Location) []Parameter {
	var out []Parameter
	for _, p := range o.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

// OperationSummary is the listing view of an operation.
type OperationSummary struct {
	Method      HttpMethod
	Path        string
	OperationID string
	Summary     string
	Tags        []string
	Deprecated  bool
}
