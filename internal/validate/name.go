package validate

import (
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Name accepts strings made only of ASCII letters, digits, hyphen and
// underscore and returns them lower-cased.
func Name(s string) (string, error) {
	if !namePattern.MatchString(s) {
		return "", newError(InvalidName,
			"'%s' contains one or more invalid characters. Name must contain only letters, numbers, hyphen and underscore characters.", s)
	}
	return strings.ToLower(s), nil
}
