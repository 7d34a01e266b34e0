// Package config loads the icspmerge configuration file.
//
// The file is optional. Values are resolved in order: built-in defaults,
// the YAML file (icspmerge.yaml, found by walking up from the working
// directory), environment variables, then command-line flags applied by the
// caller.
package config
