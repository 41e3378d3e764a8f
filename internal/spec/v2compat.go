package spec

import (
	"sort"
	"strings"
)

// normalizeOperationKeys rewrites non‑compliant Swagger v2 path items in place
// so the typed decoder sees every operation. Specifically:
//   - Method keys are lower-cased ("GET" becomes "get"). When several
//     spellings exist a lower-case object wins, then the first other spelling
//     in sorted key order.
//   - Operation nodes that are not objects are dropped; they would otherwise
//     fail the whole decode.
//
// Keys that are not HTTP methods ("parameters", "$ref", extensions) are left
// alone.
func normalizeOperationKeys(root map[string]any) {
	paths, ok := root["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return
	}

	for _, pim := range paths {
		pi, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		var mixed []string
		for key, opm := range pi {
			ml := strings.ToLower(key)
			if !isOperationKey(ml) {
				continue
			}
			if ml != key {
				mixed = append(mixed, key)
				continue
			}
			if _, isObject := opm.(map[string]any); !isObject {
				delete(pi, key)
			}
		}
		sort.Strings(mixed)
		for _, key := range mixed {
			opm := pi[key]
			delete(pi, key)
			if _, isObject := opm.(map[string]any); !isObject {
				continue
			}
			ml := strings.ToLower(key)
			if _, exists := pi[ml]; !exists {
				pi[ml] = opm
			}
		}
	}
}

func isOperationKey(method string) bool {
	switch method {
	case "get", "put", "post", "delete", "options", "head", "patch":
		return true
	}
	return false
}
