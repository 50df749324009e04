package output

import (
	"fmt"
	"strings"
)

// FormatHeader renders a markdown heading at the given level.
func FormatHeader(level int, title string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return fmt.Sprintf("%s %s", strings.Repeat("#", level), title)
}

// FormatKeyValue renders one markdown key/value bullet.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}
