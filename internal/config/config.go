// Package config loads the optional TOML settings file that fills in
// flag values the command line leaves unset.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
)

// Loader reads a TOML settings file into a kong resolver. Keys match
// flag names, with underscores accepted in place of dashes so the file
// can follow TOML convention (sample_rate for --sample-rate).
//
// Pass it to kong.Configuration. Values from the file sit between the
// built-in defaults and the command line: the file overrides defaults,
// explicit flags override the file.
func Loader(r io.Reader) (kong.Resolver, error) {
	values := map[string]interface{}{}
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if raw, ok := values[flag.Name]; ok {
			return raw, nil
		}
		if raw, ok := values[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
			return raw, nil
		}
		return nil, nil
	}
	return f, nil
}
