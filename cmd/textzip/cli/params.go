// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagsFromParams creates a [pflag.FlagSet] with flags bound to the tagged
// fields of params, which must be a pointer to a struct. Panics on
// invalid input: a bad params struct is a programming error.
//
//	var params compressParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("compress", &params)
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

// BindFlags registers a pflag entry for each tagged field of params.
//
// Tags:
//
//   - flag:"name" or flag:"name,n": long name and optional one-letter
//     shorthand. Fields without a flag tag are skipped.
//   - desc:"help text": the usage line.
//   - default:"value": parsed exactly as the same text on the command
//     line would be. Omitted means the zero value.
//
// Field types: string, bool, int, int64, float64, [time.Duration],
// []string, and any type whose pointer implements [pflag.Value]
// (config.Size, for one). Embedded structs such as [JSONOutput] are
// bound recursively.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

// flagTags is the parsed form of a field's tags.
type flagTags struct {
	name         string
	shorthand    string
	description  string
	defaultValue string
}

func parseTags(tag reflect.StructTag) (flagTags, bool) {
	flagTag, ok := tag.Lookup("flag")
	if !ok || flagTag == "" {
		return flagTags{}, false
	}
	name, shorthand, _ := strings.Cut(flagTag, ",")
	return flagTags{
		name:         name,
		shorthand:    shorthand,
		description:  tag.Get("desc"),
		defaultValue: tag.Get("default"),
	}, true
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tags, ok := parseTags(field.Tag)
		if !ok {
			continue
		}
		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}
		if err := bindField(fieldValue.Addr().Interface(), flagSet, tags); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

// bindField registers target with a zero default, then applies the
// default through the flag's own Set so every type parses its default
// the same way it parses an argument.
func bindField(target any, flagSet *pflag.FlagSet, tags flagTags) error {
	switch target := target.(type) {
	case pflag.Value:
		reflect.ValueOf(target).Elem().SetZero()
		flagSet.VarP(target, tags.name, tags.shorthand, tags.description)
	case *string:
		flagSet.StringVarP(target, tags.name, tags.shorthand, "", tags.description)
	case *bool:
		flagSet.BoolVarP(target, tags.name, tags.shorthand, false, tags.description)
	case *int:
		flagSet.IntVarP(target, tags.name, tags.shorthand, 0, tags.description)
	case *int64:
		flagSet.Int64VarP(target, tags.name, tags.shorthand, 0, tags.description)
	case *float64:
		flagSet.Float64VarP(target, tags.name, tags.shorthand, 0, tags.description)
	case *time.Duration:
		flagSet.DurationVarP(target, tags.name, tags.shorthand, 0, tags.description)
	case *[]string:
		flagSet.StringSliceVarP(target, tags.name, tags.shorthand, nil, tags.description)
	default:
		return fmt.Errorf("unsupported type %s for flag --%s", reflect.TypeOf(target).Elem(), tags.name)
	}

	if tags.defaultValue == "" {
		return nil
	}
	flag := flagSet.Lookup(tags.name)
	if err := flag.Value.Set(tags.defaultValue); err != nil {
		return fmt.Errorf("default for --%s: %w", tags.name, err)
	}
	flag.DefValue = flag.Value.String()
	return nil
}
