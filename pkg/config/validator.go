package config

import (
	"fmt"
	"reflect"
	"strings"
)

// RequiredFields validates that the named fields are non-zero.
// Nested fields use dot notation ("Bus.Workers").
func RequiredFields(fields ...string) Validator {
	return ValidatorFunc(func(config any) error {
		val := reflect.ValueOf(config)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}
		if val.Kind() != reflect.Struct {
			return fmt.Errorf("config must be a struct")
		}

		var missing []string
		for _, name := range fields {
			fieldVal := nestedField(val, name)
			if !fieldVal.IsValid() {
				return fmt.Errorf("field %s not found in config struct", name)
			}
			if fieldVal.IsZero() {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("required fields are missing: %s", strings.Join(missing, ", "))
		}
		return nil
	})
}

// Range validates that a numeric field lies within [min, max].
// Nested fields use dot notation.
func Range(fieldName string, min, max float64) Validator {
	return ValidatorFunc(func(config any) error {
		val := reflect.ValueOf(config)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}

		fieldVal := nestedField(val, fieldName)
		if !fieldVal.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		var n float64
		switch fieldVal.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n = float64(fieldVal.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n = float64(fieldVal.Uint())
		case reflect.Float32, reflect.Float64:
			n = fieldVal.Float()
		default:
			return fmt.Errorf("field %s is not numeric", fieldName)
		}

		if n < min || n > max {
			return fmt.Errorf("field %s value %v is out of range [%v, %v]", fieldName, n, min, max)
		}
		return nil
	})
}

// OneOf validates that a field equals one of the allowed values.
func OneOf(fieldName string, allowed ...any) Validator {
	return ValidatorFunc(func(config any) error {
		val := reflect.ValueOf(config)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}

		fieldVal := nestedField(val, fieldName)
		if !fieldVal.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}
		got := fieldVal.Interface()
		for _, want := range allowed {
			if reflect.DeepEqual(got, want) {
				return nil
			}
		}
		return fmt.Errorf("field %s value %v is not one of %v", fieldName, got, allowed)
	})
}

func nestedField(val reflect.Value, path string) reflect.Value {
	current := val
	for _, part := range strings.Split(path, ".") {
		if current.Kind() == reflect.Ptr {
			current = current.Elem()
		}
		if current.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		current = current.FieldByName(part)
		if !current.IsValid() {
			return reflect.Value{}
		}
	}
	return current
}
