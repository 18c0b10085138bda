package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/common"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
)

// Request is a validated extraction request.
type Request struct {
	Field constants.Field
	Text  string
}

var (
	compileOnce   sync.Once
	requestSchema *jsonschema.Schema
	resultSchema  *jsonschema.Schema
	compileErr    error
)

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func schemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		requestSchema, compileErr = compileSchema("request.json", BuildRequestSchema())
		if compileErr != nil {
			return
		}
		resultSchema, compileErr = compileSchema("result.json", BuildResultSchema())
	})
	return requestSchema, resultSchema, compileErr
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema("schema.json", schemaMap)
	if err != nil {
		return err
	}
	return validateBytes(schema, data)
}

func validateBytes(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: unmarshal data: %v", common.ErrValidation, err)
	}
	return validateValue(schema, v)
}

func validateValue(schema *jsonschema.Schema, v any) error {
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: json does not match schema: %v", common.ErrValidation, err)
	}
	return nil
}

// DecodeRequest validates raw JSON and returns the parsed request.
func DecodeRequest(data []byte) (Request, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Request{}, fmt.Errorf("%w: unmarshal data: %v", common.ErrValidation, err)
	}
	return RequestFromMap(v)
}

// RequestFromMap validates an already decoded JSON value, such as a
// structpb.Struct's AsMap, and returns the parsed request.
func RequestFromMap(v any) (Request, error) {
	req, _, err := schemas()
	if err != nil {
		return Request{}, err
	}
	if err := validateValue(req, v); err != nil {
		return Request{}, err
	}
	m := v.(map[string]any)
	field, ok := constants.ParseField(m["field"].(string))
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown field %q", common.ErrValidation, m["field"])
	}
	return Request{Field: field, Text: m["text"].(string)}, nil
}

// ValidateResult checks that r serializes to a well-formed result envelope.
func ValidateResult(r extraction.Result) error {
	_, res, err := schemas()
	if err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return validateBytes(res, b)
}

// ResultToMap renders r as the generic JSON object the gRPC surface sends.
func ResultToMap(r extraction.Result) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return m, nil
}
