// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package apidesc

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

var (
	schemaOnce  sync.Once
	schemaCache *jschema.Schema
	schemaErr   error
)

// SchemaID is the $id of the generated schema.
const SchemaID = "https://hostbind.dev/schemas/api.schema.json"

// GenerateSchema generates a JSON Schema from the API struct.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&API{})

	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Hostbind API Description"
	schema.Description = "Schema for host API description files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In("apidesc").Wrapf(err, "failed to marshal schema")
	}
	return data, nil
}

// ValidateSchema validates YAML data against the API description schema.
// It checks structure only; Parse performs the semantic checks.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.In("apidesc").Code("API_INVALID").Errorf("API description is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.In("apidesc").Code("API_INVALID").Wrapf(err, "invalid YAML")
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	if err := sch.Validate(convertToJSONTypes(yamlData)); err != nil {
		return oops.In("apidesc").Code("API_INVALID").Wrapf(err, "schema validation failed")
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaBytes, err := GenerateSchema()
		if err != nil {
			schemaErr = err
			return
		}
		var schemaData any
		if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
			schemaErr = oops.In("apidesc").Wrapf(err, "failed to parse schema JSON")
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("schema.json", schemaData); err != nil {
			schemaErr = oops.In("apidesc").Wrapf(err, "failed to add schema resource")
			return
		}
		schemaCache, schemaErr = c.Compile("schema.json")
		if schemaErr != nil {
			schemaErr = oops.In("apidesc").Wrapf(schemaErr, "failed to compile schema")
		}
	})
	return schemaCache, schemaErr
}

// convertToJSONTypes converts YAML-decoded values into the types the
// validator expects.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertToJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertToJSONTypes(v)
		}
		return result
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var result any
			if err := json.Unmarshal(b, &result); err == nil {
				return result
			}
		}
		return val
	}
}

// FormatSchemaError strips the wrapping prefix from a validation error.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), "schema validation failed: ")
}
