package utils

import (
	"path/filepath"
	"strings"
)

// baseMarkers are tried in order; the host name ends where the last
// occurrence of the first matching marker begins.
var baseMarkers = []string{"-setconf", "-conf"}

// ExtractBaseName returns the device name a configuration export is named
// after, e.g. "fw01" for "fw01-setconf2.txt.csv" and "fw01-conf.txt".
// Names without a marker lose only their extensions.
func ExtractBaseName(filename string) string {
	name := filepath.Base(filename)
	for _, marker := range baseMarkers {
		if idx := strings.LastIndex(name, marker); idx > 0 {
			return name[:idx]
		}
	}
	if idx := strings.Index(name, "."); idx > 0 {
		return name[:idx]
	}
	return name
}
