package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/toolserve/pkg/domain"
)

// CatalogMarkdown describes the registered tools as markdown, one section
// per tool with its parameter table.
func CatalogMarkdown(descs []domain.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tools (%d)\n\n", len(descs))

	for _, d := range descs {
		fmt.Fprintf(&b, "## `%s` → %s\n\n", d.Name, d.ReturnType())
		if d.Description != "" {
			b.WriteString(strings.TrimSpace(d.Description))
			b.WriteString("\n\n")
		}
		if len(d.Parameters) == 0 {
			b.WriteString("_No parameters._\n\n")
			continue
		}
		b.WriteString("| Parameter | Type | Required | Description |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, p := range d.Parameters {
			req := "yes"
			if !p.Required {
				req = fmt.Sprintf("no (default `%v`)", p.Default)
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", p.Name, p.Type, req, p.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}
