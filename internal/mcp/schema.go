package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/miniapp-bridge-go/internal/command"
)

// certificateField is the tool argument that carries the signature block.
const certificateField = "certificate"

// InputSchema builds the tool input schema for a command table entry.
func InputSchema(entry *command.Entry) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(entry.Params)+1)
	required := make([]string, 0, len(entry.Params)+1)

	for _, p := range entry.Params {
		s := paramSchema(p.Type)
		s.Description = p.Description
		properties[p.Name] = s

		if p.Required {
			required = append(required, p.Name)
		}
	}

	switch entry.Convention {
	case command.ConventionSignature, command.ConventionPayloadAndSignature:
		properties[certificateField] = certificateSchema()
		required = append(required, certificateField)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func certificateSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "signature block authorizing the call",
		Properties: map[string]*jsonschema.Schema{
			"content":   {Type: "string"},
			"signature": {Type: "string"},
		},
		Required: []string{"content", "signature"},
	}
}

// paramSchema converts a declared parameter type to a JSON Schema.
func paramSchema(typ string) *jsonschema.Schema {
	switch typ {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "number":
		return &jsonschema.Schema{Type: "number"}
	case "array":
		return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{}}
	case "object":
		return &jsonschema.Schema{Type: "object"}
	case "any":
		return &jsonschema.Schema{Types: []string{"object", "string"}}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}
