package database

import (
	"fmt"
	"regexp"
	"strings"
)

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// ConvertPlaceholders converts SQL placeholders to the format required by the
// active driver. This is the ONLY function that should be used for
// placeholder conversion in the codebase.
//
// IMPORTANT: Only ? placeholders are allowed. Using $N placeholders will panic.
// - For PostgreSQL: ? -> $1, $2, ...
// - For MySQL and sqlite: ? passed through as-is
//
// Example:
//
//	query := database.ConvertPlaceholders("SELECT secret FROM sessions WHERE session_id = ?")
//	rows, err := db.Query(query, id)
func ConvertPlaceholders(query string) string {
	if dollarPlaceholder.MatchString(query) {
		panic(fmt.Sprintf("ConvertPlaceholders: $N placeholders are not allowed. Use ? placeholders instead.\nQuery: %s", query))
	}

	if !IsPostgreSQL() {
		return query
	}

	if !strings.Contains(query, "?") {
		return query
	}

	result := strings.Builder{}
	paramNum := 1
	for _, c := range query {
		if c == '?' {
			result.WriteString(fmt.Sprintf("$%d", paramNum))
			paramNum++
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}
