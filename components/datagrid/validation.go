package datagrid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cast"
)

// PayloadValidator checks a create/update payload before it is sent.
type PayloadValidator interface {
	Validate(entity EntityConfig, payload map[string]any) error
}

// RequiredFieldsValidator rejects payloads with blank required fields.
type RequiredFieldsValidator struct{}

// Validate returns a *ValidationError naming every blank required field.
func (RequiredFieldsValidator) Validate(entity EntityConfig, payload map[string]any) error {
	fields := map[string]string{}
	for _, key := range entity.RequiredFields {
		if isBlank(payload[key]) {
			fields[key] = "is required"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed) == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	s, err := cast.ToStringE(v)
	return err == nil && strings.TrimSpace(s) == ""
}

// SchemaValidator compiles entity payload schemas and checks payloads against them.
// Required fields are checked first so blank values are reported per field.
type SchemaValidator struct {
	required RequiredFieldsValidator
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewSchemaValidator builds a validator backed by jsonschema v5.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{compiled: make(map[string]*jsonschema.Schema)}
}

// Validate runs the required-field check, then the entity schema when present.
func (v *SchemaValidator) Validate(entity EntityConfig, payload map[string]any) error {
	if err := v.required.Validate(entity, payload); err != nil {
		return err
	}
	if len(entity.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(entity)
	if err != nil {
		return err
	}
	normalized := map[string]any{}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("datagrid: marshal payload for %s: %w", entity.Code, err)
		}
		if err := json.Unmarshal(data, &normalized); err != nil {
			return fmt.Errorf("datagrid: normalize payload for %s: %w", entity.Code, err)
		}
	}
	if err := schema.Validate(normalized); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Fields: schemaFieldErrors(verr)}
		}
		return fmt.Errorf("datagrid: payload for %s failed validation: %w", entity.Code, err)
	}
	return nil
}

func (v *SchemaValidator) schemaFor(entity EntityConfig) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[entity.Code]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(entity.Schema)
	if err != nil {
		return nil, fmt.Errorf("datagrid: marshal schema %s: %w", entity.Code, err)
	}
	compiler := jsonschema.NewCompiler()
	name := entity.Code + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("datagrid: load schema %s: %w", entity.Code, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("datagrid: compile schema %s: %w", entity.Code, err)
	}
	v.mu.Lock()
	v.compiled[entity.Code] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// schemaFieldErrors flattens leaf causes into field -> message.
func schemaFieldErrors(root *jsonschema.ValidationError) map[string]string {
	fields := map[string]string{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			if idx := strings.Index(field, "/"); idx >= 0 {
				field = field[:idx]
			}
			if field == "" {
				field = "_payload"
			}
			if _, exists := fields[field]; !exists {
				fields[field] = e.Message
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(root)
	return fields
}
