// Package faro exposes assets compiled into the binary: the default
// theme, written out by `faro init`.
package faro

import "embed"

//go:embed all:themes/default
var DefaultTheme embed.FS
