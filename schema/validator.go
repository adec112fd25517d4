package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// FieldError represents a validation error with field path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// SafeValidate parses data and validates it against the schema without
// raising: it returns the decoded value together with any issues found.
// A nil *ValidationErrors means the value conforms.
func (s *JSONSchema) SafeValidate(data []byte) (any, *ValidationErrors) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, &ValidationErrors{
			Errors: []FieldError{{Path: "", Message: fmt.Sprintf("invalid JSON: %v", err)}},
		}
	}

	var errs []FieldError
	validateValue(value, s, "", &errs)
	if len(errs) > 0 {
		return value, &ValidationErrors{Errors: errs}
	}
	return value, nil
}

// ParseStrict parses data and validates it against the schema, failing on
// the first violation. Unlike SafeValidate it does not accumulate issue
// details: the returned error describes a single violation.
func (s *JSONSchema) ParseStrict(data []byte) (any, error) {
	value, verrs := s.SafeValidate(data)
	if verrs != nil {
		first := verrs.Errors[0]
		return nil, fmt.Errorf("strict validation failed: %s", first.Error())
	}
	return value, nil
}

var formatValidators = map[StringFormat]*regexp.Regexp{
	FormatEmail:    regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`),
	FormatURI:      regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`),
	FormatUUID:     regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`),
	FormatDateTime: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(.\d+)?(Z|[+-]\d{2}:\d{2})?$`),
	FormatDate:     regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	FormatTime:     regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(.\d+)?(Z|[+-]\d{2}:\d{2})?$`),
}

// validateValue validates a value against a schema at the given path.
func validateValue(value any, schema *JSONSchema, path string, errs *[]FieldError) {
	if schema == nil {
		return
	}

	if schema.Const != nil {
		if !equalValues(value, schema.Const) {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("value must be %v", schema.Const),
			})
		}
		return
	}

	if len(schema.Enum) > 0 {
		found := false
		for _, enumVal := range schema.Enum {
			if equalValues(value, enumVal) {
				found = true
				break
			}
		}
		if !found {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("value must be one of: %v", schema.Enum),
			})
		}
	}

	switch schema.Type {
	case TypeString:
		validateString(value, schema, path, errs)
	case TypeNumber:
		validateNumber(value, schema, path, errs)
	case TypeInteger:
		validateInteger(value, schema, path, errs)
	case TypeBoolean:
		validateBoolean(value, path, errs)
	case TypeNull:
		validateNull(value, path, errs)
	case TypeObject:
		validateObject(value, schema, path, errs)
	case TypeArray:
		validateArray(value, schema, path, errs)
	}
}

func validateString(value any, schema *JSONSchema, path string, errs *[]FieldError) {
	str, ok := value.(string)
	if !ok {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected string, got %T", value),
		})
		return
	}

	if schema.MinLength != nil && len(str) < *schema.MinLength {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("string length %d is less than minimum %d", len(str), *schema.MinLength),
		})
	}
	if schema.MaxLength != nil && len(str) > *schema.MaxLength {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("string length %d exceeds maximum %d", len(str), *schema.MaxLength),
		})
	}
	if schema.Pattern != "" {
		matched, err := regexp.MatchString(schema.Pattern, str)
		if err != nil {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("invalid pattern %q: %v", schema.Pattern, err),
			})
		} else if !matched {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("string does not match pattern %q", schema.Pattern),
			})
		}
	}
	if schema.Format != "" {
		if re, ok := formatValidators[schema.Format]; ok && !re.MatchString(str) {
			*errs = append(*errs, FieldError{
				Path:    path,
				Message: fmt.Sprintf("string does not match format %q", schema.Format),
			})
		}
	}
}

func validateNumber(value any, schema *JSONSchema, path string, errs *[]FieldError) {
	num, ok := toFloat64(value)
	if !ok {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected number, got %T", value),
		})
		return
	}
	validateNumericConstraints(num, schema, path, errs)
}

func validateInteger(value any, schema *JSONSchema, path string, errs *[]FieldError) {
	num, ok := toFloat64(value)
	if !ok {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected integer, got %T", value),
		})
		return
	}
	if num != math.Trunc(num) {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected integer, got %v", num),
		})
		return
	}
	validateNumericConstraints(num, schema, path, errs)
}

func validateNumericConstraints(num float64, schema *JSONSchema, path string, errs *[]FieldError) {
	if schema.Minimum != nil && num < *schema.Minimum {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("value %v is less than minimum %v", num, *schema.Minimum),
		})
	}
	if schema.Maximum != nil && num > *schema.Maximum {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("value %v exceeds maximum %v", num, *schema.Maximum),
		})
	}
}

func validateBoolean(value any, path string, errs *[]FieldError) {
	if _, ok := value.(bool); !ok {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected boolean, got %T", value),
		})
	}
}

func validateNull(value any, path string, errs *[]FieldError) {
	if value != nil {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected null, got %T", value),
		})
	}
}

func validateObject(value any, schema *JSONSchema, path string, errs *[]FieldError) {
	obj, ok := value.(map[string]any)
	if !ok {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected object, got %T", value),
		})
		return
	}

	for _, req := range schema.Required {
		val, exists := obj[req]
		if !exists {
			*errs = append(*errs, FieldError{
				Path:    joinPath(path, req),
				Message: "required field is missing",
			})
		} else if val == nil {
			*errs = append(*errs, FieldError{
				Path:    joinPath(path, req),
				Message: "required field must not be null",
			})
		}
	}

	for propName, propValue := range obj {
		propPath := joinPath(path, propName)
		if propSchema, ok := schema.Properties[propName]; ok {
			validateValue(propValue, propSchema, propPath, errs)
		} else if schema.AdditionalProperties != nil && !*schema.AdditionalProperties {
			*errs = append(*errs, FieldError{
				Path:    propPath,
				Message: "additional property not allowed",
			})
		}
	}
}

func validateArray(value any, schema *JSONSchema, path string, errs *[]FieldError) {
	arr, ok := value.([]any)
	if !ok {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("expected array, got %T", value),
		})
		return
	}

	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("array has %d items, minimum is %d", len(arr), *schema.MinItems),
		})
	}
	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		*errs = append(*errs, FieldError{
			Path:    path,
			Message: fmt.Sprintf("array has %d items, maximum is %d", len(arr), *schema.MaxItems),
		})
	}
	if schema.Items != nil {
		for i, item := range arr {
			validateValue(item, schema.Items, fmt.Sprintf("%s[%d]", path, i), errs)
		}
	}
}

func toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func equalValues(a, b any) bool {
	aNum, aIsNum := toFloat64(a)
	bNum, bIsNum := toFloat64(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return aStr == bStr
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return aBool == bBool
	}

	if a == nil && b == nil {
		return true
	}

	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	return string(aJSON) == string(bJSON)
}

func joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}
