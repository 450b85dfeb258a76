package fragments

import (
	"github.com/invopop/jsonschema"
)

// MetadataSchema generates the JSON schema of the metadata block, for editors
// that validate frontmatter. Unknown keys are allowed since they only produce
// lint warnings.
func MetadataSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Metadata{})
	schema.Title = "mimic fragment metadata"
	return schema
}
