package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Required fails for empty or whitespace-only strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required", Key: "validation.required"},
	}
}

// MaxLen counts runes, not bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d characters long", max),
			Key:     "validation.max_length",
		},
	}
}

// ValidEmail accepts a bare RFC 5322 address whose domain has at least one dot.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return strings.Contains(domain, ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address", Key: "validation.email"},
	}
}

// PasswordPolicy bounds password length and the number of character classes
// (upper, lower, digit, other) a password must mix. MinLength and MaxLength
// count runes; MaxBytes, when set, caps the encoded size.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	MaxBytes       int
	MinCharClasses int
}

// BcryptMaxBytes is the longest input bcrypt accepts.
const BcryptMaxBytes = 72

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, MaxLength: BcryptMaxBytes, MaxBytes: BcryptMaxBytes, MinCharClasses: 2}
}

func StrongPassword(field, value string, p PasswordPolicy) Rule {
	return Rule{
		Check: func() bool {
			n := utf8.RuneCountInString(value)
			if n < p.MinLength || n > p.MaxLength {
				return false
			}
			if p.MaxBytes > 0 && len(value) > p.MaxBytes {
				return false
			}
			var upper, lower, digit, other bool
			for _, r := range value {
				switch {
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsLower(r):
					lower = true
				case unicode.IsDigit(r):
					digit = true
				default:
					other = true
				}
			}
			classes := 0
			for _, has := range []bool{upper, lower, digit, other} {
				if has {
					classes++
				}
			}
			return classes >= p.MinCharClasses
		},
		Error: ValidationError{
			Field:   field,
			Message: passwordMessage(p),
			Key:     "validation.password_strength",
		},
	}
}

func passwordMessage(p PasswordPolicy) string {
	msg := fmt.Sprintf("must be %d-%d characters", p.MinLength, p.MaxLength)
	if p.MaxBytes > 0 && p.MaxBytes < p.MaxLength*utf8.UTFMax {
		msg += fmt.Sprintf(" (at most %d bytes)", p.MaxBytes)
	}
	return msg + fmt.Sprintf(" and mix at least %d character types", p.MinCharClasses)
}

// OneOf fails unless value is one of options.
func OneOf[T comparable](field string, value T, options []T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(options, value) },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of %v", options),
			Key:     "validation.one_of",
		},
	}
}
