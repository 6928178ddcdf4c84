package templates

import "embed"

// FS contains the templates used by the exporters, so installed binaries
// do not depend on files next to them.
//
//go:embed *.tmpl
var FS embed.FS
