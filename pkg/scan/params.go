package scan

import (
	"regexp"
	"strings"
)

// integerPattern recognizes regex qualifiers that only admit digits.
var integerPattern = regexp.MustCompile(`^\^?(\[0-9\]|\\d)[+*]?(\{\d+(,\d*)?\})?\$?$`)

// PathParams extracts path parameters and their declared types from a
// route pattern. Types are shorthand strings resolved to JSON Schema by
// the schema dispatcher: "int", "float", "uuid", "path", "string".
// Unrecognized qualifiers fall back to "string".
//
// Placeholders are scanned with brace-depth counting, the way chi's own
// pattern parser does, because regex qualifiers may themselves contain
// braces ({id:[0-9]{5}}).
func PathParams(pattern string) map[string]string {
	params := make(map[string]string)
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '{' {
			continue
		}
		depth := 1
		j := i + 1
		for ; j < len(pattern) && depth > 0; j++ {
			switch pattern[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			break // unbalanced, ignore the rest
		}
		placeholder := pattern[i+1 : j-1]
		i = j - 1

		name, qualifier, _ := strings.Cut(placeholder, ":")
		if name == "" || name == "*" {
			continue
		}
		params[name] = paramType(qualifier)
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// paramType maps a placeholder qualifier to a type shorthand. Both
// symbolic qualifiers ("int") and the common regex forms chi users
// write ("[0-9]+") are recognized.
func paramType(qualifier string) string {
	switch qualifier {
	case "":
		return "string"
	case "int", "integer":
		return "int"
	case "float", "number":
		return "float"
	case "uuid":
		return "uuid"
	case "path":
		return "path"
	}
	if integerPattern.MatchString(qualifier) {
		return "int"
	}
	if isUUIDRegex(qualifier) {
		return "uuid"
	}
	return "string"
}

// isUUIDRegex recognizes the usual hand-written UUID qualifier:
// hex groups of 8-4-4-4-12 joined with dashes.
func isUUIDRegex(qualifier string) bool {
	stripped := strings.Trim(qualifier, "^$")
	return strings.Count(stripped, "-") == 4 &&
		strings.Contains(stripped, "[0-9a-f") &&
		strings.Contains(stripped, "{8}")
}
