// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package envflag provides a wrapper around the standard flag package, allowing
// flags to be overridden by environment variables.
package envflag

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
)

// Type is a constraint that permits only types supported by envflag package.
type Type interface {
	int | int64 | bool | string
}

// Value sets up a flag with the given name, default value, and usage
// information.
//
// If the environment variable specified by envName is set, it overrides the
// flag's default value, and the flag on the command line overrides both. An
// environment variable that doesn't parse as T leaves the default in place and
// is reported by [Check].
func Value[T Type](
	name, envName string, value T, usage string,
	fs *flag.FlagSet, getenv func(string) string,
) *T {
	f := &flagValue[T]{value: new(T)}
	*f.value = value
	if s := getenv(envName); s != "" {
		if v, err := parse[T](s); err != nil {
			f.envErr = fmt.Errorf("%s: %w", envName, err)
		} else {
			*f.value = v
		}
	}
	fs.Var(f, name, usage+" Can be overridden by "+envName+" environment variable.")
	return f.value
}

// Check returns the errors of environment variables that failed to parse
// for flags of fs that weren't set on the command line.
func Check(fs *flag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if ev, ok := f.Value.(interface{ envError() error }); ok {
			if err := ev.envError(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

type flagValue[T Type] struct {
	value  *T
	envErr error // cleared by Set
}

func (f *flagValue[T]) envError() error { return f.envErr }

func (f *flagValue[T]) String() string {
	if f.value == nil {
		return ""
	}
	return format(*f.value)
}

func (f *flagValue[T]) Set(s string) error {
	v, err := parse[T](s)
	if err != nil {
		return err
	}
	*f.value = v
	f.envErr = nil
	return nil
}

// IsBoolFlag lets boolean flags be passed without a value, like -verbose.
func (f *flagValue[T]) IsBoolFlag() bool {
	_, ok := any(f.value).(*bool)
	return ok
}

func parse[T Type](s string) (T, error) {
	var (
		v    any
		err  error
		zero T
	)
	switch any(zero).(type) {
	case int:
		v, err = strconv.Atoi(s)
	case int64:
		v, err = strconv.ParseInt(s, 10, 64)
	case bool:
		v, err = strconv.ParseBool(s)
	case string:
		v = s
	}
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) {
			err = ne.Err
		}
		return zero, fmt.Errorf("parsing %q: %w", s, err)
	}
	return v.(T), nil
}

func format[T Type](v T) string {
	switch v := any(v).(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	}
	return ""
}
