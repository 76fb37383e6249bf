package pattern

import (
	"regexp"
	"strings"
)

// Matcher caches compiled glob patterns for repeated matching.
type Matcher struct {
	compiled map[string]*regexp.Regexp
}

func NewMatcher() *Matcher {
	return &Matcher{
		compiled: make(map[string]*regexp.Regexp),
	}
}

// Match checks if a string matches a glob pattern.
// Supported wildcards:
// * - matches any sequence of characters
// ? - matches any single character
// [...] - matches any single character within the brackets
// \x - escape character x
func Match(pattern, str string) bool {
	if pattern == "*" {
		return true
	}

	regex, err := regexp.Compile("^" + globToRegex(pattern) + "$")
	if err != nil {
		return false
	}

	return regex.MatchString(str)
}

// MatchCached is like Match but caches compiled patterns.
func (m *Matcher) MatchCached(pattern, str string) bool {
	if pattern == "*" {
		return true
	}

	regex, ok := m.compiled[pattern]
	if !ok {
		var err error
		regex, err = regexp.Compile("^" + globToRegex(pattern) + "$")
		if err != nil {
			return false
		}
		m.compiled[pattern] = regex
	}

	return regex.MatchString(str)
}

// globToRegex converts a glob-style pattern to a regular expression.
func globToRegex(pattern string) string {
	var result strings.Builder
	result.Grow(len(pattern) * 2)

	inCharClass := false
	escaped := false

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]

		if escaped {
			result.WriteByte(ch)
			escaped = false
			continue
		}

		switch ch {
		case '\\':
			if i < len(pattern)-1 {
				escaped = true
			} else {
				result.WriteString("\\\\")
			}
		case '*':
			if !inCharClass {
				result.WriteString(".*")
			} else {
				result.WriteByte(ch)
			}
		case '?':
			if !inCharClass {
				result.WriteByte('.')
			} else {
				result.WriteByte(ch)
			}
		case '[':
			inCharClass = true
			result.WriteByte(ch)
		case ']':
			inCharClass = false
			result.WriteByte(ch)
		case '^', '$', '.', '+', '|', '(', ')', '{', '}':
			if !inCharClass {
				result.WriteByte('\\')
			}
			result.WriteByte(ch)
		default:
			result.WriteByte(ch)
		}
	}

	return result.String()
}

// IsPattern checks if a string contains glob metacharacters.
func IsPattern(str string) bool {
	escaped := false
	for i := 0; i < len(str); i++ {
		if escaped {
			escaped = false
			continue
		}

		switch str[i] {
		case '\\':
			escaped = true
		case '*', '?', '[', ']':
			return true
		}
	}
	return false
}
