package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSchema is returned by CheckSchema and Registry.Register for
// parameter schemas that are not valid JSON Schema documents.
var ErrInvalidSchema = errors.New("invalid tool schema")

var timeType = reflect.TypeOf(time.Time{})

// CheckSchema compiles schema against the JSON Schema meta-schema. A nil
// schema is valid.
func CheckSchema(schema map[string]any) error {
	if schema == nil {
		return nil
	}

	doc, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("parameters.json", bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	if _, err := compiler.Compile("parameters.json"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	return nil
}

// SchemaOf derives a JSON schema for the struct v (or pointer to struct).
// Nested structs become object schemas, slices and arrays get an "items"
// schema. Fields are named by their json tag, and tagged with:
//
//	description:"..."   copied to the property
//	enum:"a,b,c"        restricts the value, or each item of a slice
//
// Non-pointer fields without omitempty are required. Anything that is not a
// struct yields an empty object schema.
func SchemaOf(v any) map[string]any {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return objectSchema(t, map[reflect.Type]bool{})
}

func objectSchema(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	if seen[t] {
		return map[string]any{"type": "object"}
	}
	seen[t] = true
	defer delete(seen, t)

	properties := make(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		prop := typeSchema(field.Type, seen)
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			values := strings.Split(enum, ",")
			for j := range values {
				values[j] = strings.TrimSpace(values[j])
			}
			if items, ok := prop["items"].(map[string]any); ok {
				items["enum"] = values
			} else {
				prop["enum"] = values
			}
		}

		properties[name] = prop

		omitEmpty := slices.Contains(strings.Split(opts, ","), "omitempty")
		if !omitEmpty && field.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func typeSchema(t reflect.Type, seen map[reflect.Type]bool) map[string]any {
	switch t.Kind() {
	case reflect.Pointer:
		return typeSchema(t.Elem(), seen)
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": typeSchema(t.Elem(), seen)}
	case reflect.Map:
		return map[string]any{"type": "object"}
	case reflect.Struct:
		if t == timeType {
			return map[string]any{"type": "string", "format": "date-time"}
		}
		return objectSchema(t, seen)
	default:
		return map[string]any{"type": "string"}
	}
}

// ValidateArguments checks args against an object schema as produced by
// SchemaOf or decoded from JSON. It descends into nested object properties
// and array items, checking type, enum, required and, when
// additionalProperties is false, unknown keys. The first violation is
// returned as a *ToolError with Code CodeValidation and Field set to its
// path, e.g. "filters.tags[1]". A nil value satisfies any type.
func ValidateArguments(args map[string]any, schema map[string]any) error {
	return validateObject("", args, schema)
}

func validateValue(path string, value any, schema map[string]any) error {
	if value == nil || schema == nil {
		return nil
	}

	if types := stringList(schema["type"]); len(types) > 0 && !slices.ContainsFunc(types, func(t string) bool {
		return isValidType(value, t)
	}) {
		return validationError(path, value, "expected type %s, got %T", strings.Join(types, "|"), value)
	}

	if enum, ok := schema["enum"]; ok && !inEnum(value, enum) {
		return validationError(path, value, "value %v is not one of %v", value, enum)
	}

	switch v := value.(type) {
	case map[string]any:
		return validateObject(path, v, schema)
	default:
		items, ok := schema["items"].(map[string]any)
		if !ok {
			return nil
		}

		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}

		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface(), items); err != nil {
				return err
			}
		}

		return nil
	}
}

func validateObject(path string, obj map[string]any, schema map[string]any) error {
	for _, name := range requiredFields(schema) {
		if _, exists := obj[name]; !exists {
			return validationError(join(path, name), nil, "required field is missing")
		}
	}

	properties, _ := schema["properties"].(map[string]any)

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		prop, exists := properties[name]
		if !exists {
			if extra, ok := schema["additionalProperties"].(bool); ok && !extra {
				return validationError(join(path, name), obj[name], "unknown field")
			}
			continue
		}

		propSchema, _ := prop.(map[string]any)
		if err := validateValue(join(path, name), obj[name], propSchema); err != nil {
			return err
		}
	}

	return nil
}

func validationError(path string, value any, format string, args ...any) *ToolError {
	return &ToolError{
		Message: fmt.Sprintf(format, args...),
		Code:    CodeValidation,
		Field:   path,
		Details: value,
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// stringList reads a schema keyword holding a string or a list of strings.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		types := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				types = append(types, s)
			}
		}
		return types
	default:
		return nil
	}
}

// requiredFields reads "required", which is []string when built by SchemaOf
// and []any when decoded from JSON.
func requiredFields(schema map[string]any) []string {
	return stringList(schema["required"])
}

func inEnum(value any, enum any) bool {
	rv := reflect.ValueOf(enum)
	if rv.Kind() != reflect.Slice {
		return true
	}

	for i := 0; i < rv.Len(); i++ {
		if equalJSON(value, rv.Index(i).Interface()) {
			return true
		}
	}

	return false
}

// equalJSON compares scalars the way they compare after a JSON round trip,
// so 2 and 2.0 are equal.
func equalJSON(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func isValidType(value any, expected string) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		f, ok := toFloat(value)
		return ok && f == float64(int64(f))
	case "number":
		_, ok := toFloat(value)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "null":
		return value == nil
	default:
		return true
	}
}
