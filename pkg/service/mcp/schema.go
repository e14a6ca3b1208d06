package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

// inputSchema infers the JSON schema of T and lets refine tighten it with
// constraints that struct tags cannot express
func inputSchema[T any](refine func(*jsonschema.Schema)) (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer input schema")
	}
	if refine != nil {
		refine(schema)
	}
	return schema, nil
}

func property(schema *jsonschema.Schema, name string) *jsonschema.Schema {
	if p, ok := schema.Properties[name]; ok {
		return p
	}
	p := &jsonschema.Schema{}
	if schema.Properties == nil {
		schema.Properties = make(map[string]*jsonschema.Schema)
	}
	schema.Properties[name] = p
	return p
}

func minimum(schema *jsonschema.Schema, name string, v float64) {
	property(schema, name).Minimum = &v
}

func enum(schema *jsonschema.Schema, name string, values ...string) {
	p := property(schema, name)
	p.Enum = make([]any, len(values))
	for i, v := range values {
		p.Enum[i] = v
	}
}
