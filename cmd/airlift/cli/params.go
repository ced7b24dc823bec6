// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagsFromParams creates a [pflag.FlagSet] with flags bound to the tagged
// fields of params. params must be a pointer to a struct. Panics on
// invalid input (programming error, not runtime data).
//
// This is the convenience wrapper for the common pattern:
//
//	var params deployParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("deploy", &params)
//	    },
//	    Run: func(ctx context.Context, args []string) error {
//	        // params fields are populated after flag parsing
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers pflag entries for each tagged field in params.
// params must be a pointer to a struct.
//
// Three tags control flag binding:
//
//   - flag:"name" or flag:"name,n" — the long flag name and optional single-
//     character shorthand. Fields without a flag tag are skipped.
//   - desc:"help text" — the flag's help description.
//   - default:"value" — the default value, parsed according to the field's
//     Go type. If omitted, the type's zero value is used.
//
// Supported field types: string, bool, int, int64, [time.Duration],
// []string. Embedded structs are bound recursively, which is how
// [JSONOutput] contributes its --json flag.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFields(value.Elem(), flagSet)
}

// bindStructFields iterates over struct fields and binds them to flagSet.
func bindStructFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		// Embedded structs: recurse into their fields.
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStructFields(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}

		name, shorthand, _ := strings.Cut(flagTag, ",")
		description := field.Tag.Get("desc")
		defaultString := field.Tag.Get("default")

		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}

		if err := bindField(fieldValue, flagSet, name, shorthand, description, defaultString); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// bindField creates a pflag binding for a single struct field.
func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, name, shorthand, description, defaultString string) error {
	pointer := fieldValue.Addr().Interface()

	switch target := pointer.(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, defaultString, description)

	case *bool:
		defaultValue := false
		if defaultString != "" {
			parsed, err := strconv.ParseBool(defaultString)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.BoolVarP(target, name, shorthand, defaultValue, description)

	case *int:
		defaultValue := 0
		if defaultString != "" {
			parsed, err := strconv.Atoi(defaultString)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.IntVarP(target, name, shorthand, defaultValue, description)

	case *int64:
		var defaultValue int64
		if defaultString != "" {
			parsed, err := strconv.ParseInt(defaultString, 10, 64)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.Int64VarP(target, name, shorthand, defaultValue, description)

	case *time.Duration:
		var defaultValue time.Duration
		if defaultString != "" {
			parsed, err := time.ParseDuration(defaultString)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			defaultValue = parsed
		}
		flagSet.DurationVarP(target, name, shorthand, defaultValue, description)

	case *[]string:
		var defaultValue []string
		if defaultString != "" {
			defaultValue = strings.Split(defaultString, ",")
		}
		flagSet.StringSliceVarP(target, name, shorthand, defaultValue, description)

	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), name)
	}

	return nil
}
