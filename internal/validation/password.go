package validation

import (
	"errors"
	"unicode"
)

const passwordMinLength = 8

// ValidatePassword проверяет минимальные требования к паролю: длина не меньше
// восьми символов, хотя бы одна заглавная и строчная буква и одна цифра.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return errors.New("пароль должен быть не менее 8 символов")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return errors.New("пароль должен содержать хотя бы одну заглавную букву")
	case !hasLower:
		return errors.New("пароль должен содержать хотя бы одну строчную букву")
	case !hasDigit:
		return errors.New("пароль должен содержать хотя бы одну цифру")
	}
	return nil
}
