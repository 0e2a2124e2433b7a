package logs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charliek/woconsole/internal/domain"
)

// MaxPatternLength is the maximum allowed length for filter patterns
// to prevent potential DoS attacks from excessively complex patterns
const MaxPatternLength = 256

// Filter applies a LogFilter to log lines
type Filter struct {
	filter  domain.LogFilter
	regex   *regexp.Regexp
	pattern string // lowercased substring pattern
}

// NewFilter creates a new filter from a LogFilter
func NewFilter(filter domain.LogFilter) (*Filter, error) {
	f := &Filter{filter: filter}

	if len(filter.Pattern) > MaxPatternLength {
		return nil, fmt.Errorf("%w: pattern exceeds maximum length of %d characters", domain.ErrInvalidPattern, MaxPatternLength)
	}

	if filter.Pattern != "" {
		if filter.IsRegex {
			re, err := regexp.Compile(filter.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPattern, err)
			}
			f.regex = re
		} else {
			f.pattern = strings.ToLower(filter.Pattern)
		}
	}

	return f, nil
}

// Matches returns true if the line matches the filter criteria
func (f *Filter) Matches(line domain.LogLine) bool {
	if line.Category.Severity() < f.filter.MinCategory.Severity() {
		return false
	}

	switch {
	case f.regex != nil:
		return f.regex.MatchString(line.Message)
	case f.pattern != "":
		return strings.Contains(strings.ToLower(line.Message), f.pattern)
	}

	return true
}

// FilterLines filters a slice of log lines
func FilterLines(lines []domain.LogLine, filter domain.LogFilter) ([]domain.LogLine, error) {
	if filter.IsEmpty() {
		return lines, nil
	}

	f, err := NewFilter(filter)
	if err != nil {
		return nil, err
	}

	result := make([]domain.LogLine, 0, len(lines))
	for _, line := range lines {
		if f.Matches(line) {
			result = append(result, line)
		}
	}

	return result, nil
}

// FilterLinesLimit filters lines and returns at most limit of the newest matches,
// along with the number of matches before limiting
func FilterLinesLimit(lines []domain.LogLine, filter domain.LogFilter, limit int) ([]domain.LogLine, int, error) {
	filtered, err := FilterLines(lines, filter)
	if err != nil {
		return nil, 0, err
	}

	total := len(filtered)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	return filtered, total, nil
}
