package browser

import (
	"fmt"
	"strings"
	"unicode"
)

// keyDefinition is the wire-level description of one key: the DOM key value,
// the physical code, the legacy virtual key code, and the text it produces
// (empty for non-printing keys).
type keyDefinition struct {
	Key     string
	Code    string
	KeyCode int
	Text    string
}

// namedKeys covers the non-printing keys this client synthesizes. The values
// follow the DOM UI Events key/code registries.
var namedKeys = map[string]keyDefinition{
	"Backspace":  {Key: "Backspace", Code: "Backspace", KeyCode: 8},
	"Tab":        {Key: "Tab", Code: "Tab", KeyCode: 9},
	"Enter":      {Key: "Enter", Code: "Enter", KeyCode: 13, Text: "\r"},
	"Shift":      {Key: "Shift", Code: "ShiftLeft", KeyCode: 16},
	"Control":    {Key: "Control", Code: "ControlLeft", KeyCode: 17},
	"Alt":        {Key: "Alt", Code: "AltLeft", KeyCode: 18},
	"Escape":     {Key: "Escape", Code: "Escape", KeyCode: 27},
	"PageUp":     {Key: "PageUp", Code: "PageUp", KeyCode: 33},
	"PageDown":   {Key: "PageDown", Code: "PageDown", KeyCode: 34},
	"End":        {Key: "End", Code: "End", KeyCode: 35},
	"Home":       {Key: "Home", Code: "Home", KeyCode: 36},
	"ArrowLeft":  {Key: "ArrowLeft", Code: "ArrowLeft", KeyCode: 37},
	"ArrowUp":    {Key: "ArrowUp", Code: "ArrowUp", KeyCode: 38},
	"ArrowRight": {Key: "ArrowRight", Code: "ArrowRight", KeyCode: 39},
	"ArrowDown":  {Key: "ArrowDown", Code: "ArrowDown", KeyCode: 40},
	"Delete":     {Key: "Delete", Code: "Delete", KeyCode: 46},
}

// keyDefinitionFor resolves a key name or single printable character to its
// definition.
func keyDefinitionFor(key string) (keyDefinition, error) {
	if def, ok := namedKeys[key]; ok {
		return def, nil
	}
	runes := []rune(key)
	if len(runes) != 1 {
		return keyDefinition{}, fmt.Errorf("unknown key %q", key)
	}

	r := runes[0]
	def := keyDefinition{Key: key, Text: key}
	switch {
	case r >= 'a' && r <= 'z':
		def.Code = "Key" + strings.ToUpper(key)
		def.KeyCode = int(unicode.ToUpper(r))
	case r >= 'A' && r <= 'Z':
		def.Code = "Key" + key
		def.KeyCode = int(r)
	case r >= '0' && r <= '9':
		def.Code = "Digit" + key
		def.KeyCode = int(r)
	case r == ' ':
		def.Key = " "
		def.Code = "Space"
		def.KeyCode = 32
	default:
		// Punctuation and anything else: the text is what matters; the
		// browser synthesizes a char event from it.
	}
	return def, nil
}
