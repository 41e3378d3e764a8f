package spec

import (
	"regexp"
	"strings"
)

// ListOption configures which operations ListOperations reports.
type ListOption func(*listConfig)

type listConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) ListOption {
	return func(c *listConfig) {
		if len(tags) == 0 {
			return
		}
		if c.includeTags == nil {
			c.includeTags = make(map[string]struct{}, len(tags))
		}
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) ListOption {
	return func(c *listConfig) {
		if len(tags) == 0 {
			return
		}
		if c.excludeTags == nil {
			c.excludeTags = make(map[string]struct{}, len(tags))
		}
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithMethods keeps only operations using one of the provided HTTP methods.
// Methods are compared case-insensitively.
func WithMethods(methods []string) ListOption {
	return func(c *listConfig) {
		for _, m := range methods {
			if strings.TrimSpace(m) == "" {
				continue
			}
			if c.methods == nil {
				c.methods = make(map[HttpMethod]struct{}, len(methods))
			}
			c.methods[normalizeMethod(m)] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose path matches at least one of
// the provided regular expressions.
func WithPathPatterns(patterns []string) ListOption {
	return func(c *listConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				// An invalid pattern matches nothing rather than everything.
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// ListOperations returns a summary of every operation in the document that
// passes the filters, sorted by path then method.
func ListOperations(doc *Document, opts ...ListOption) []OperationSummary {
	cfg := &listConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var out []OperationSummary
	for _, p := range doc.sortedPaths() {
		if !allowByPath(p, cfg) {
			continue
		}
		for _, pair := range operationsOf(doc.doc.Paths[p]) {
			if len(cfg.methods) > 0 {
				if _, ok := cfg.methods[pair.method]; !ok {
					continue
				}
			}
			tags := make([]string, 0, len(pair.op.Tags))
			for _, t := range pair.op.Tags {
				t = strings.TrimSpace(t)
				if t != "" {
					tags = append(tags, t)
				}
			}
			if !allowByTags(tags, cfg) {
				continue
			}
			out = append(out, OperationSummary{
				Method:      pair.method,
				Path:        p,
				OperationID: safeStr(pair.op.OperationID),
				Summary:     safeStr(pair.op.Summary),
				Tags:        tags,
				Deprecated:  pair.op.Deprecated,
			})
		}
	}
	return out
}

func allowByPath(p string, cfg *listConfig) bool {
	if len(cfg.pathRes) == 0 {
		return true
	}
	for _, re := range cfg.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func allowByTags(tags []string, cfg *listConfig) bool {
	hasInclude := len(cfg.includeTags) > 0
	if hasInclude {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(cfg.excludeTags) > 0 {
		for _, t := range tags {
			if _, blocked := cfg.excludeTags[t]; blocked {
				return false
			}
		}
	}
	return true
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }
