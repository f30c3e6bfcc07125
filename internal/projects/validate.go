// ABOUTME: Client-side constraints checked before a project form is submitted
// ABOUTME: Uses go-playground/validator rules mirroring the project form inputs

package projects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var typeRule = "oneof=" + strings.Join(ProjectTypes, " ")

// fieldRules lists the checks per field. Edit rules apply only to submitted
// fields.
var fieldRules = []struct {
	field  string
	label  string
	create string
	edit   string
}{
	{FieldName, "Project name", "required,min=3", "min=3"},
	{FieldKey, "Project key", "required,min=3,max=10", "min=3,max=10"},
	{FieldType, "Project type", "required," + typeRule, typeRule},
}

// ValidateDraft checks a draft against the form constraints and returns one
// message per failing field, keyed like backend conflicts ("createName").
// A nil result means the draft may be submitted.
func ValidateDraft(intent Intent, d Draft, messages Messages) FieldErrors {
	if messages == nil {
		messages = English
	}

	values := map[string]*string{
		FieldName: d.Name,
		FieldKey:  d.Key,
		FieldType: d.Type,
	}

	var errs FieldErrors
	for _, rule := range fieldRules {
		v := values[rule.field]
		tags := rule.create
		if intent != IntentCreate {
			if v == nil {
				continue
			}
			tags = rule.edit
		}

		var value string
		if v != nil {
			value = *v
		}

		if err := validate.Var(value, tags); err != nil {
			if errs == nil {
				errs = FieldErrors{}
			}
			errs[ErrorKey(intent, rule.field)] = describe(err, rule.label, messages)
		}
	}
	return errs
}

func describe(err error, label string, messages Messages) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf(messages.Message(MsgInvalid), label)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(messages.Message(MsgRequired), label)
	case "min":
		return fmt.Sprintf(messages.Message(MsgTooShort), label, fe.Param())
	case "max":
		return fmt.Sprintf(messages.Message(MsgTooLong), label, fe.Param())
	case "oneof":
		return fmt.Sprintf(messages.Message(MsgOneOf), label, strings.Join(strings.Fields(fe.Param()), ", "))
	}
	return fmt.Sprintf(messages.Message(MsgInvalid), label)
}
