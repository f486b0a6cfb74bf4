package config

import (
	"fmt"
	"regexp"
)

const maxIdentifierLength = 64

// Identifiers name networks and wallets in the CLI configuration file, where they are used as
// table keys.
var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateIdentifier checks that the given network or wallet name is well-formed.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return fmt.Errorf("identifier must be at most %d characters long", maxIdentifierLength)
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("identifier must start with a lower-case letter or number and only contain lower-case letters, numbers, _ and -")
	}
	return nil
}
