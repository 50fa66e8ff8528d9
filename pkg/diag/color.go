package diag

import (
	"os"

	"github.com/xyproto/env/v2"
)

// UseColor reports whether diagnostics written to f should be colored.
// P0C_NO_COLOR or NO_COLOR disables color.
func UseColor(f *os.File) bool {
	if env.Bool("P0C_NO_COLOR") || env.Has("NO_COLOR") {
		return false
	}
	if f == nil {
		return false
	}
	return isTerminal(int(f.Fd()))
}
