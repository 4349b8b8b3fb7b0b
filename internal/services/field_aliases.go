package services

import (
	"embed"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/geocatalog-backend/internal/domain"
)

const fieldAliasesEnv = "CATALOG_FIELD_ALIASES_YAML"

//go:embed field_aliases.yaml
var fieldAliasesFS embed.FS

var (
	aliasOnce  sync.Once
	aliasTable map[string][]string
)

// fieldAliases maps each canonical field name to its accepted CSV header
// aliases. The first alias doubles as the human-friendly export header.
func fieldAliases() map[string][]string {
	aliasOnce.Do(func() {
		raw, err := loadAliasYAML()
		if err != nil {
			aliasTable = map[string][]string{}
			return
		}
		var parsed map[string][]string
		if err := yaml.Unmarshal(raw, &parsed); err != nil {
			aliasTable = map[string][]string{}
			return
		}
		aliasTable = parsed
	})
	return aliasTable
}

func loadAliasYAML() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(fieldAliasesEnv)); path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			return raw, nil
		}
	}
	return fieldAliasesFS.ReadFile("field_aliases.yaml")
}

// ResolveHeader maps a CSV header to its canonical field name, directly or
// through the alias table. Matching is case-insensitive.
func ResolveHeader(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "", false
	}
	if types.IsKnownField(h) {
		return h, true
	}
	for canonical, aliases := range fieldAliases() {
		if h == canonical {
			return canonical, true
		}
		for _, alias := range aliases {
			if h == strings.ToLower(strings.TrimSpace(alias)) {
				return canonical, true
			}
		}
	}
	return "", false
}

// HeaderAlias returns the human-friendly header for a canonical field.
func HeaderAlias(field string) string {
	if aliases := fieldAliases()[field]; len(aliases) > 0 {
		return aliases[0]
	}
	return field
}
