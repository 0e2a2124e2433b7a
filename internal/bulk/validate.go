package bulk

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charliek/woconsole/internal/domain"
)

// domainPattern is the hostname rule the management API enforces
var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

// ValidDomain reports whether s is acceptable to the management API
func ValidDomain(s string) bool {
	return domainPattern.MatchString(s)
}

// ParseDomains turns free-form operator input into an ordered domain list.
// Items are separated by whitespace or commas, lowercased, and repeated
// items are dropped keeping the first occurrence.
func ParseDomains(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		d := strings.ToLower(strings.TrimSpace(f))
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// ValidateItems rejects a run that has nothing to deploy. Malformed or
// repeated domains are not an error here; Run records them as failed items.
func ValidateItems(items []string) error {
	if len(items) == 0 {
		return domain.ErrNoItems
	}
	return nil
}

// checkItem reports why item cannot be sent to the management API.
// seen tracks the domains already accepted in this run.
func checkItem(item string, seen map[string]bool) error {
	if !ValidDomain(item) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDomain, item)
	}
	if seen[item] {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateItem, item)
	}
	seen[item] = true
	return nil
}

// itemDetail is the console text for a rejected item
func itemDetail(err error) string {
	if errors.Is(err, domain.ErrDuplicateItem) {
		return duplicateDetail
	}
	return invalidDetail
}
