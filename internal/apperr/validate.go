package apperr

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate        = validator.New()
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

const MsgInvalidUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."

func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

func IsUsername(s string) bool {
	return usernamePattern.MatchString(s)
}
