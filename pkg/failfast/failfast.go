// Package failfast provides assertions for programmer errors.
// These panic: they guard API misuse, not runtime conditions.
package failfast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Err panics if err != nil, with a stack trace attached.
func Err(err error) {
	if err != nil {
		panic(fmt.Errorf("failfast: %w\n%s", err, debug.Stack()))
	}
}

// If panics if condition is false.
func If(condition bool, format string, args ...any) {
	if !condition {
		panic(fmt.Errorf("failfast: "+format, args...))
	}
}

// NotNil panics if v is nil, including typed nil pointers and nil
// function values.
func NotNil(v any, name string) {
	if v == nil {
		panic(fmt.Errorf("failfast: %s is nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Errorf("failfast: %s is nil", name))
		}
	}
}

// NotEmpty panics if s is the empty string.
func NotEmpty(s, name string) {
	if s == "" {
		panic(fmt.Errorf("failfast: %s is empty", name))
	}
}
