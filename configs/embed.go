// Package configs provides the embedded configuration template for ctxd.
//
// The template is embedded at build time with //go:embed so it ships in
// every distribution. `ctxd config init` writes it to the working
// directory; internal/config then layers the file over the hardcoded
// defaults and applies CTXD_* environment overrides on top.
package configs

import _ "embed"

// ConfigTemplate is the annotated starting point for a ctxd.yaml.
//
//go:embed ctxd.example.yaml
var ConfigTemplate string
