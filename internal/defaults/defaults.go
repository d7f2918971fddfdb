// Package defaults provides embedded starter files for the ytscribe init
// subcommand.
package defaults

import _ "embed"

// ConfigYAML is the annotated example configuration.
//
//go:embed config.example.yaml
var ConfigYAML []byte

// DotEnv is the example .env file.
//
//go:embed example.env
var DotEnv []byte
