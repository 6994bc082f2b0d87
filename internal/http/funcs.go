package http

import "html/template"

// icons are decorative glyphs drawn with currentColor.
var icons = map[string]string{
	"clipboard": `<path d="M9 4h6v3H9z"/><path d="M7 5H5v16h14V5h-2"/>`,
	"building":  `<path d="M4 21V3h10v18"/><path d="M14 9h6v12"/><path d="M8 7h2M8 11h2M8 15h2"/>`,
	"plus":      `<path d="M12 5v14M5 12h14"/>`,
	"check":     `<path d="M5 13l4 4L19 7"/>`,
	"clock":     `<circle cx="12" cy="12" r="9"/><path d="M12 7v5l3 2"/>`,
	"alert":     `<path d="M12 3l10 18H2z"/><path d="M12 10v4M12 17v.5"/>`,
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"icon": icon,
	}
}

// icon returns an inline SVG for name, or nothing for unknown names.
func icon(name string) template.HTML {
	paths, ok := icons[name]
	if !ok {
		return ""
	}
	return template.HTML(`<svg class="icon icon-` + name + `" aria-hidden="true" width="16" height="16" viewBox="0 0 24 24" ` +
		`fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">` +
		paths + `</svg>`)
}
