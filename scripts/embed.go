// Package scripts embeds the Risor outline scripts so binaries run without
// a scripts directory on disk.
package scripts

import "embed"

// FS holds outline/*.risor.
//
//go:embed outline/*.risor
var FS embed.FS
