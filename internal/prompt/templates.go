package prompt

import (
	"os"
	"path/filepath"
)

// Template file names read from the templates directory.
const (
	TemplateDriver       = "driver_context.txt"
	TemplateCodegen      = "driver_codegen.txt"
	TemplateObjectSystem = "object_system.txt"
	TemplateMudlib       = "mudlib_context.txt"
	TemplateEfuns        = "efuns_context.txt"
	TemplateReferences   = "reference_sources.txt"
)

// TemplateNames lists every template the builder consults.
var TemplateNames = []string{
	TemplateDriver,
	TemplateCodegen,
	TemplateObjectSystem,
	TemplateMudlib,
	TemplateEfuns,
	TemplateReferences,
}

// Templates maps template file names to their bodies. Absent entries read
// as empty bodies.
type Templates map[string]string

// Get returns the body of name, or "".
func (t Templates) Get(name string) string {
	return t[name]
}

// LoadTemplates reads every known template from dir. Files that are missing
// or unreadable are left out, so their sections render empty.
func LoadTemplates(dir string) Templates {
	t := make(Templates, len(TemplateNames))
	if dir == "" {
		return t
	}
	for _, name := range TemplateNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		t[name] = string(data)
	}
	return t
}
