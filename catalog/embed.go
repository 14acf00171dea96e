// Package catalog provides the embedded seed catalog.
package catalog

import _ "embed"

// Seed is the JSON catalog served when no catalog file is configured.
//
//go:embed seed/products.json
var Seed []byte
