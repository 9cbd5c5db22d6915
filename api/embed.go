// Package api giữ OpenAPI document, được serve tại /openapi.yaml và swagger UI.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPISpec []byte
