package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/sessionauth/internal/common/constants"
)

const (
	RuleRequired = "required"
	RuleTooShort = "min"
	RuleTooLong  = "max"
	RuleTaken    = "unique"

	tagBcryptMax = "bcryptmax"
)

type accountRules struct {
	Username       string  `json:"username" validate:"required,max=255"`
	Password       *string `json:"password" validate:"omitnil,min=8,bcryptmax"`
	PasswordDigest bool    `json:"password_digest" validate:"required"`
	SessionToken   string  `json:"session_token" validate:"required"`
}

type passwordRules struct {
	NewPassword string `json:"new_password" validate:"required,min=8,bcryptmax"`
}

// Validator checks account input and reports all violations at once.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation(tagBcryptMax, func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= constants.PasswordMaxBytes
	})
	return &Validator{validate: v}
}

// ValidateAccount checks a candidate account. password is nil when the
// caller supplied none; hasDigest reports whether a digest exists or will be
// derived from password.
func (cv *Validator) ValidateAccount(username string, password *string, hasDigest bool, sessionToken string) []Violation {
	return cv.run(accountRules{
		Username:       username,
		Password:       password,
		PasswordDigest: hasDigest,
		SessionToken:   sessionToken,
	})
}

func (cv *Validator) ValidatePassword(password string) []Violation {
	return cv.run(passwordRules{NewPassword: password})
}

func (cv *Validator) run(rules any) []Violation {
	err := cv.validate.Struct(rules)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Violation{{Field: "base", Rule: "invalid", Message: err.Error()}}
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, toViolation(fe))
	}
	return violations
}

func toViolation(fe validator.FieldError) Violation {
	field := fe.Field()
	human := humanize(field)

	switch fe.Tag() {
	case "required":
		return Violation{Field: field, Rule: RuleRequired, Message: human + " can't be blank"}
	case "min":
		return Violation{Field: field, Rule: RuleTooShort, Message: fmt.Sprintf("%s is too short (minimum is %s characters)", human, fe.Param())}
	case "max":
		return Violation{Field: field, Rule: RuleTooLong, Message: fmt.Sprintf("%s is too long (maximum is %s characters)", human, fe.Param())}
	case tagBcryptMax:
		return Violation{Field: field, Rule: RuleTooLong, Message: fmt.Sprintf("%s is too long (maximum is %d bytes)", human, constants.PasswordMaxBytes)}
	default:
		return Violation{Field: field, Rule: fe.Tag(), Message: human + " is invalid"}
	}
}

func usernameTaken() Violation {
	return Violation{Field: "username", Rule: RuleTaken, Message: "Username has already been taken"}
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
