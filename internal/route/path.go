// Package route turns caller data into the pieces of a request: the concrete
// path, the query mapping and the JSON body fields.
package route

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// PathOption configures BuildPath.
type PathOption func(*pathConfig)

type pathConfig struct {
	escape bool
}

// WithEscapedValues percent-encodes substituted values as single path
// segments, so "/" or "?" in a value cannot change the request target.
func WithEscapedValues(escape bool) PathOption {
	return func(c *pathConfig) { c.escape = escape }
}

// BuildPath replaces every "{key}" in template with the canonical string form
// of data[key]. Keys without a placeholder are ignored. Values are not
// percent-encoded unless WithEscapedValues is set.
func BuildPath(template string, data map[string]any, opts ...PathOption) string {
	cfg := pathConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(data) == 0 || !strings.Contains(template, "{") {
		return template
	}

	pairs := make([]string, 0, 2*len(data))
	for key, value := range data {
		s := Stringify(value)
		if cfg.escape {
			s = url.PathEscape(s)
		}
		pairs = append(pairs, "{"+key+"}", s)
	}
	// A single replacer pass keeps substituted text from being rescanned.
	return strings.NewReplacer(pairs...).Replace(template)
}

// Placeholders lists the placeholder names in template, in order of
// appearance, without duplicates.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// Unresolved reports the placeholders still present in a built path.
func Unresolved(path string) []string { return Placeholders(path) }

// Stringify renders a scalar the way it should appear in a URL: integers
// without decoration, booleans as true/false, floats in shortest form and
// nil as the empty string.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
