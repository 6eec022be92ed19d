// Package config loads application configuration from YAML or JSON
// files, with environment variable overrides and pluggable
// validation.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Validator validates a loaded configuration value.
type Validator interface {
	Validate(config any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(config any) error

func (f ValidatorFunc) Validate(config any) error { return f(config) }

// Load reads the file at path into target, picking the decoder by
// file extension. Unknown extensions default to YAML.
func Load(path string, target any) error {
	if strings.HasSuffix(path, ".json") {
		return LoadJSON(path, target)
	}
	return LoadYAML(path, target)
}

// LoadWithEnv loads the file and then applies environment variable
// overrides named PREFIX_FIELD or PREFIX_STRUCT_FIELD.
func LoadWithEnv(path, prefix string, target any) error {
	if err := Load(path, target); err != nil {
		return fmt.Errorf("load config file: %w", err)
	}
	if err := ApplyEnvOverrides(prefix, target); err != nil {
		return fmt.Errorf("apply env overrides: %w", err)
	}
	return nil
}

// ApplyEnvOverrides walks target's exported fields and overwrites
// them from matching environment variables. target must be a pointer
// to a struct.
func ApplyEnvOverrides(prefix string, target any) error {
	if prefix == "" {
		prefix = "APP"
	}
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to a struct")
	}
	return applyEnvToStruct(prefix, val.Elem())
}

func applyEnvToStruct(prefix string, val reflect.Value) error {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		envKey := prefix + "_" + strings.ToUpper(typ.Field(i).Name)
		envKey = strings.ReplaceAll(envKey, "-", "_")

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(envKey, field); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}
		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("set field %s from env %s: %w", typ.Field(i).Name, envKey, err)
		}
	}
	return nil
}

func setFieldFromEnv(field reflect.Value, envValue string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value %q", envValue)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(envValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value %q", envValue)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			return fmt.Errorf("invalid float value %q", envValue)
		}
		field.SetFloat(f)
	case reflect.Bool:
		field.SetBool(strings.EqualFold(envValue, "true") || envValue == "1")
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// Validate runs validators against config, stopping at the first
// failure.
func Validate(config any, validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(config); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}
