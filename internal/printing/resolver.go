package printing

import "strings"

// Resolve maps a configured logical printer name onto an installed queue
// name. Fallback order: exact match, case-insensitive match, case-insensitive
// substring match. When nothing matches, the configured name is returned
// unresolved so downstream dispatch fails loudly instead of silently dropping
// the job.
func Resolve(configured string, available []string) string {
	if len(available) == 0 {
		return configured
	}

	for _, name := range available {
		if name == configured {
			return name
		}
	}

	lowered := strings.ToLower(configured)
	for _, name := range available {
		if strings.ToLower(name) == lowered {
			return name
		}
	}

	for _, name := range available {
		if strings.Contains(strings.ToLower(name), lowered) {
			return name
		}
	}

	return configured
}
