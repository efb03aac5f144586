package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner: a wordmark, the version and the
// endpoint clients should connect to.
func PrintBanner(w io.Writer, version, endpoint string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	title := termenv.String(" toolserve ").Bold().Foreground(p.Color("#0f172a")).Background(p.Color("#818cf8"))
	ver := termenv.String(version).Foreground(p.Color("#a78bfa"))
	url := termenv.String(endpoint).Underline().Foreground(p.Color("#f472b6"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", title, ver)
	fmt.Fprintf(w, "  MCP endpoint: %s\n", url)
	fmt.Fprintln(w)
}
