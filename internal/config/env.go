package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrUnsetVariable is returned in strict mode for placeholders that
// reference an unset environment variable.
var ErrUnsetVariable = errors.New("environment variable not set")

// placeholderPattern matches ${VAR} and ${VAR:-default} anywhere in a string.
// Hyphens are allowed in names since some systems permit them.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][\w-]*)(:-([^}]*))?\}`)

// ExpandEnv resolves ${VAR} and ${VAR:-default} placeholders in the raw
// config text before it is decoded, so no component downstream ever sees
// an unexpanded placeholder. In strict mode an unset variable without a
// default is an error; otherwise it expands to the empty string.
func ExpandEnv(text string, strict bool) (string, error) {
	var missing []string

	expanded := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]

		if value, ok := os.LookupEnv(name); ok {
			return strings.TrimSpace(value)
		}
		if hasDefault {
			return def
		}
		missing = append(missing, name)
		return ""
	})

	if strict && len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnsetVariable, strings.Join(missing, ", "))
	}
	return expanded, nil
}
