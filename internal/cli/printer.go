package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// success prints a message in green with a checkmark prefix.
func success(format string, a ...any) {
	green.Printf("✓ "+format, a...)
}

// warning prints a message in yellow.
func warning(format string, a ...any) {
	yellow.Printf("! "+format, a...)
}

// fail prints a message in red to stderr.
func fail(format string, a ...any) {
	red.Fprintf(os.Stderr, "✗ "+format, a...)
}

// step prints a progress message in cyan.
func step(format string, a ...any) {
	cyan.Printf("→ "+format, a...)
}

// plain prints an uncolored formatted message.
func plain(format string, a ...any) {
	fmt.Printf(format, a...)
}
