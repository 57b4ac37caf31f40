package registry

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/exeflow/exeflow/pkg/models"
)

// ValidateConfig checks a configuration bag against the registered factory's
// JSON schema, before any strategy is created. Schema violations come back as
// a ValidationResult; the error return covers unknown node types and broken
// schemas only.
func (r *Registry) ValidateConfig(nodeType string, config map[string]any) (models.ValidationResult, error) {
	factory, ok := r.GetFactory(nodeType)
	if !ok {
		return models.InvalidResult(), fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	documentLoader := gojsonschema.NewGoLoader(config)

	outcome, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return models.InvalidResult(), fmt.Errorf("schema validation failed for %q: %w", nodeType, err)
	}

	result := models.ValidResult()
	for _, schemaErr := range outcome.Errors() {
		result.AddError(schemaErr.String())
	}

	return result, nil
}
