package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30

	MinCaseTitleLength       = 3
	MaxCaseTitleLength       = 200
	MaxCaseDescriptionLength = 5000

	MinDisputeReasonLength = 10
	MaxDisputeReasonLength = 2000

	MaxVerdictExplanationLength = 2000

	MinCaseAmount = 1
	MaxCaseAmount = 100_000_000_00 // 100 миллионов в минимальных единицах
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	// Базовая проверка формата
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	// Только буквы, цифры и подчеркивание
	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateCaseTitle проверяет заголовок дела.
func ValidateCaseTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок дела обязателен")
	}

	title = strings.TrimSpace(title)

	return ValidateLength("заголовок дела", title, MinCaseTitleLength, MaxCaseTitleLength)
}

// ValidateCaseDescription проверяет описание дела.
func ValidateCaseDescription(description string) error {
	if description == "" {
		return nil
	}

	description = strings.TrimSpace(description)

	return ValidateLength("описание дела", description, 0, MaxCaseDescriptionLength)
}

// ValidateCaseAmount проверяет сумму дела в минимальных единицах валюты.
func ValidateCaseAmount(amount int64) error {
	if amount < MinCaseAmount {
		return fmt.Errorf("сумма дела должна быть положительной")
	}
	if amount > MaxCaseAmount {
		return fmt.Errorf("сумма дела не может превышать %d", int64(MaxCaseAmount))
	}
	return nil
}

// ValidateDisputeReason проверяет обоснование спора.
func ValidateDisputeReason(reason string) error {
	if reason == "" {
		return fmt.Errorf("обоснование спора обязательно")
	}

	reason = strings.TrimSpace(reason)

	return ValidateLength("обоснование спора", reason, MinDisputeReasonLength, MaxDisputeReasonLength)
}

// ValidateVerdictExplanation проверяет пояснение к вердикту.
func ValidateVerdictExplanation(explanation string) error {
	if explanation == "" {
		return nil
	}

	explanation = strings.TrimSpace(explanation)

	return ValidateLength("пояснение к вердикту", explanation, 0, MaxVerdictExplanationLength)
}

// ValidatePercent проверяет процентное значение вердикта или голоса.
func ValidatePercent(fieldName string, percent int64) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%s должен быть в диапазоне от 0 до 100", fieldName)
	}
	return nil
}
