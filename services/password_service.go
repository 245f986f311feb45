package services

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes long")
	ErrPasswordNoUpper    = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLower    = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber   = errors.New("password must contain at least one number")
	ErrPasswordCommon     = errors.New("password is too common")
	ErrPasswordSequential = errors.New("password contains a run of sequential characters")
	ErrPasswordRepeating  = errors.New("password contains repeating characters")
)

// PasswordValidator validates passwords against strength requirements
type PasswordValidator struct {
	minLength       int
	requireUpper    bool
	requireLower    bool
	requireNumber   bool
	maxRun          int
	commonPasswords map[string]bool
}

func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		minLength:     8,
		requireUpper:  true,
		requireLower:  true,
		requireNumber: true,
		maxRun:        3,
		commonPasswords: map[string]bool{
			"password":    true,
			"password1":   true,
			"password123": true,
			"12345678":    true,
			"qwerty123":   true,
			"iloveyou":    true,
			"readify123":  true,
		},
	}
}

// Validate returns the first rule the password breaks.
func (pv *PasswordValidator) Validate(password string) error {
	if len(password) < pv.minLength {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	if pv.commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}

	var hasUpper, hasLower, hasNumber bool
	var prev rune
	repeat, ascending, descending := 1, 1, 1

	for i, ch := range []rune(password) {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsNumber(ch):
			hasNumber = true
		}

		if i > 0 {
			repeat = bump(repeat, ch == prev)
			ascending = bump(ascending, ch == prev+1)
			descending = bump(descending, ch == prev-1)
			if repeat >= pv.maxRun {
				return ErrPasswordRepeating
			}
			if ascending >= pv.maxRun || descending >= pv.maxRun {
				return ErrPasswordSequential
			}
		}
		prev = ch
	}

	if pv.requireUpper && !hasUpper {
		return ErrPasswordNoUpper
	}
	if pv.requireLower && !hasLower {
		return ErrPasswordNoLower
	}
	if pv.requireNumber && !hasNumber {
		return ErrPasswordNoNumber
	}
	return nil
}

func bump(n int, cont bool) int {
	if cont {
		return n + 1
	}
	return 1
}

// HashPassword hashes password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
