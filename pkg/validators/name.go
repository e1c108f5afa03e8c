package validators

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxNameLength = 255

var (
	ErrNameEmpty   = errors.New("no name provided")
	ErrNameTooLong = errors.New("name is too long")
)

func NameValidator(n string) error {
	n = strings.TrimSpace(n)
	if n == "" {
		return ErrNameEmpty
	}

	if utf8.RuneCountInString(n) > MaxNameLength {
		return ErrNameTooLong
	}

	return nil
}
