package route

import (
	"sort"
	"strings"

	"github.com/mark3labs/swaggerclient/internal/spec"
)

// DefaultFreeFormPrefixes are key prefixes that always route to the query
// string, for server-specific parameters the document does not declare
// ("cf_" is the custom-field convention).
var DefaultFreeFormPrefixes = []string{"cf_"}

// Routed is the outcome of classifying caller data against an operation.
// Path-consumed values appear in neither map.
type Routed struct {
	Query map[string]any
	Body  map[string]any
	// PathKeys lists the data keys consumed by declared path parameters.
	PathKeys []string
}

// Option configures Route.
type Option func(*config)

type config struct {
	prefixes []string
}

// WithFreeFormPrefixes replaces the default free-form query prefixes. An
// empty list disables the convention.
func WithFreeFormPrefixes(prefixes []string) Option {
	return func(c *config) {
		c.prefixes = c.prefixes[:0]
		for _, p := range prefixes {
			if p = strings.TrimSpace(p); p != "" {
				c.prefixes = append(c.prefixes, p)
			}
		}
	}
}

// Route splits data into query and body fields using the declared
// parameters. For each key the parameters are scanned in declaration order
// and the first path or query parameter of that name wins:
//   - a path parameter consumes the value (templating only);
//   - a query parameter sends it to the query.
//
// A key with no path or query declaration goes to the query when it carries
// a free-form prefix. Keys left unmatched become body fields. Route does not modify data or
// params, and routing the same input twice gives the same result.
func Route(data map[string]any, params []spec.Parameter, opts ...Option) Routed {
	cfg := config{prefixes: append([]string(nil), DefaultFreeFormPrefixes...)}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := Routed{
		Query: make(map[string]any),
		Body:  make(map[string]any),
	}
	for name, value := range data {
		switch classify(name, params, cfg.prefixes) {
		case spec.InPath:
			out.PathKeys = append(out.PathKeys, name)
		case spec.InQuery:
			out.Query[name] = value
		default:
			out.Body[name] = value
		}
	}
	sort.Strings(out.PathKeys)
	return out
}

func classify(name string, params []spec.Parameter, prefixes []string) spec.Location {
	for _, p := range params {
		if p.Name != name {
			continue
		}
		if p.In == spec.InPath || p.In == spec.InQuery {
			return p.In
		}
	}
	if hasAnyPrefix(name, prefixes) {
		return spec.InQuery
	}
	return spec.InBody
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
