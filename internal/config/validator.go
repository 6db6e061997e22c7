// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after
// secrets are resolved.  Any tag mismatch or validation error aborts
// startup, ensuring the binary never runs with partial, malformed, or
// missing configuration.
//
// Only structural fields are `required` (the listen address).  Provider
// keys validate their *shape* when present (`omitempty,url`,
// `omitempty,email`) but may be absent—dependent routes fail at call time
// instead of blocking boot.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
