package password

import (
	"fmt"
	"unicode"

	"github.com/dmitrijs2005/basicsite/internal/common"
)

const (
	minUsernameLen = 5
	maxUsernameLen = 20
	minPasswordLen = 8
	maxPasswordLen = 60
)

// ValidateUsername accepts letters and numbers, 5 to 20 bytes of UTF-8.
func ValidateUsername(name string) error {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return fmt.Errorf("%w: username may contain only letters and numbers", common.ErrorValidation)
		}
	}
	if len(name) < minUsernameLen || len(name) > maxUsernameLen {
		return fmt.Errorf("%w: username must be between %d and %d characters long",
			common.ErrorValidation, minUsernameLen, maxUsernameLen)
	}
	return nil
}

// ValidatePassword accepts 8 to 60 ASCII characters.
func ValidatePassword(pw string) error {
	for _, r := range pw {
		if r > unicode.MaxASCII {
			return fmt.Errorf("%w: password may contain only ASCII characters", common.ErrorValidation)
		}
	}
	if len(pw) < minPasswordLen || len(pw) > maxPasswordLen {
		return fmt.Errorf("%w: password must be between %d and %d characters long",
			common.ErrorValidation, minPasswordLen, maxPasswordLen)
	}
	return nil
}
