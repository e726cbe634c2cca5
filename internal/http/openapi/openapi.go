// Package openapi embeds the inventory API description served at
// /openapi.yaml.
package openapi

import _ "embed"

// YAML contains the embedded OpenAPI 3 document.
//
//go:embed openapi.yaml
var YAML []byte
