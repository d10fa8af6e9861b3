package apperr

import (
	"fmt"
	"unicode/utf8"
)

// Field messages, worded the way API clients of this service already expect.
const (
	MsgRequired     = "This field is required."
	MsgBlank        = "This field may not be blank."
	MsgInvalidEmail = "Enter a valid email address."
	MsgInvalidInt   = "A valid integer is required."
	MsgInvalidDate  = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
)

func MaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func InvalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func InvalidChoice(v string) string {
	return fmt.Sprintf("\"%s\" is not a valid choice.", v)
}

func AlreadyExists(model, field string) string {
	return fmt.Sprintf("%s with this %s already exists.", model, field)
}

// CheckString validates a present string value: blank and length rules.
func (v *ValidationError) CheckString(field, value string, allowBlank bool, maxLen int) bool {
	if value == "" && !allowBlank {
		v.Add(field, MsgBlank)
		return false
	}
	if maxLen > 0 && utf8.RuneCountInString(value) > maxLen {
		v.Add(field, MaxLength(maxLen))
		return false
	}
	return true
}

// CheckRequired validates a string field that must be present.
func (v *ValidationError) CheckRequired(field string, value *string, allowBlank bool, maxLen int) bool {
	if value == nil {
		v.Add(field, MsgRequired)
		return false
	}
	return v.CheckString(field, *value, allowBlank, maxLen)
}
