package manual

import (
	_ "embed"
)

// bundledDocument is the manual shipped with the binary for deployments
// that do not run the API server.
//
//go:embed bundled/sl900.json
var bundledDocument []byte

// Bundled decodes the manual shipped inside the binary.
func Bundled() (*Manual, error) {
	return Parse(bundledDocument)
}
