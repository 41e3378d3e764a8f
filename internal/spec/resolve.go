package spec

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
)

// Resolve builds the descriptor for one (path, method) pair. It fails with an
// OperationNotFoundError when the document does not declare the pair.
//
// Parameters keep their declaration order: operation-level parameters first,
// then path-level parameters the operation does not override. Order matters
// to routing, where the first matching declaration wins.
func Resolve(doc *Document, path, method string) (*Operation, error) {
	raw, item, err := doc.Lookup(path, method)
	if err != nil {
		return nil, err
	}

	op := &Operation{
		Path:         path,
		Method:       normalizeMethod(method),
		OperationID:  raw.OperationID,
		Summary:      raw.Summary,
		Description:  raw.Description,
		Deprecated:   raw.Deprecated,
		Responses:    raw.Responses,
		Security:     raw.Security,
		ExternalDocs: raw.ExternalDocs,
	}
	if raw.Tags != nil {
		op.Tags = append([]string{}, raw.Tags...)
	}
	if raw.Consumes != nil {
		op.Consumes = append([]string{}, raw.Consumes...)
	}
	if raw.Produces != nil {
		op.Produces = append([]string{}, raw.Produces...)
	}
	if raw.Schemes != nil {
		op.Schemes = append([]string{}, raw.Schemes...)
	}

	seen := make(map[string]struct{})
	for _, group := range []openapi2.Parameters{raw.Parameters, item.Parameters} {
		for _, rp := range group {
			p, ok := doc.toParameter(rp)
			if !ok {
				if rp != nil && rp.Ref != "" {
					op.UnresolvedRefs = append(op.UnresolvedRefs, rp.Ref)
				}
				continue
			}
			if _, dup := seen[p.Key()]; dup {
				continue
			}
			seen[p.Key()] = struct{}{}
			op.Parameters = append(op.Parameters, p)
		}
	}

	return op, nil
}

func (d *Document) toParameter(rp *openapi2.Parameter) (Parameter, bool) {
	if rp == nil {
		return Parameter{}, false
	}
	if rp.Ref != "" {
		rp = d.parameterDefinition(rp.Ref)
		if rp == nil {
			return Parameter{}, false
		}
	}
	name := strings.TrimSpace(rp.Name)
	if name == "" {
		return Parameter{}, false
	}

	p := Parameter{
		Name:             name,
		In:               Location(strings.TrimSpace(rp.In)),
		Description:      rp.Description,
		Required:         rp.Required,
		Type:             rp.Type,
		Format:           rp.Format,
		Schema:           rp.Schema,
		Items:            rp.Items,
		CollectionFormat: rp.CollectionFormat,
		AllowEmptyValue:  rp.AllowEmptyValue,
		Default:          rp.Default,
		Minimum:          rp.Minimum,
		Maximum:          rp.Maximum,
		ExclusiveMin:     rp.ExclusiveMin,
		ExclusiveMax:     rp.ExclusiveMax,
		MaxLength:        rp.MaxLength,
		Pattern:          rp.Pattern,
		MaxItems:         rp.MaxItems,
		UniqueItems:      rp.UniqueItems,
		MultipleOf:       rp.MultipleOf,
	}
	// Zero minimums are indistinguishable from undeclared ones in the decoded
	// document; only non-zero values are surfaced.
	if rp.MinLength > 0 {
		v := rp.MinLength
		p.MinLength = &v
	}
	if rp.MinItems > 0 {
		v := rp.MinItems
		p.MinItems = &v
	}
	if rp.Enum != nil {
		p.Enum = append([]any{}, rp.Enum...)
	}
	if p.In == InPath {
		p.Required = true
	}
	if p.In != InBody {
		p.Schema = nil
	}
	return p, true
}
