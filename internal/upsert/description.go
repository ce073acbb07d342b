package upsert

import (
	"html"
	"strings"
)

// Fixed labels of the shop's product description layout
const (
	DescriptionHeading = "Opis produktu"
	ParametersLabel    = "Parametry: "
)

// BuildDescription renders the shop description of a product: a heading, the
// supplier's description as a paragraph and a paragraph listing the
// non-blank attributes. The supplier description is already HTML and is kept
// as is; attribute values are plain text and get escaped.
func BuildDescription(description string, attributes []string) string {
	var b strings.Builder

	b.WriteString("<h2>" + DescriptionHeading + "</h2>")

	if strings.TrimSpace(description) != "" {
		b.WriteString("<p>")
		b.WriteString(description)
		b.WriteString("</p>")
	}

	var params []string
	for _, a := range attributes {
		if strings.TrimSpace(a) == "" {
			continue
		}
		params = append(params, html.EscapeString(a))
	}
	if len(params) > 0 {
		b.WriteString("<p><b>" + ParametersLabel + "</b>")
		b.WriteString(strings.Join(params, ", "))
		b.WriteString("</p>")
	}

	return b.String()
}
