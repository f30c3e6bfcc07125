// ABOUTME: Maps backend conflict details to field-keyed form errors
// ABOUTME: Known details are checked in a fixed priority order

package projects

import "strings"

// Conflict details sent by the backend
const (
	DetailKeyExists    = "Project with this key already exist!"
	DetailNameExists   = "Project with this name already exist!"
	DetailBadNameChars = "Slashes, ':' and '?' not allowed in project name!"
)

// Message catalog keys
const (
	MsgKeyConflict  = "error_projectKey"
	MsgNameConflict = "error_projectName"
	MsgNameChars    = "error_projectNameChars"
	MsgRequired     = "error_required"
	MsgTooShort     = "error_tooShort"
	MsgTooLong      = "error_tooLong"
	MsgOneOf        = "error_oneOf"
	MsgInvalid      = "error_invalid"
)

type ConflictKind int

const (
	ConflictNone ConflictKind = iota
	ConflictKey
	ConflictName
	ConflictCharacters
	ConflictUnknown
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictNone:
		return "none"
	case ConflictKey:
		return "key"
	case ConflictName:
		return "name"
	case ConflictCharacters:
		return "characters"
	}
	return "unknown"
}

// conflictOrder is the order details are matched in; the first match wins
var conflictOrder = []struct {
	kind   ConflictKind
	detail string
}{
	{ConflictKey, DetailKeyExists},
	{ConflictName, DetailNameExists},
	{ConflictCharacters, DetailBadNameChars},
}

// Classify maps a backend detail to a ConflictKind. An empty detail is
// ConflictNone; an unrecognised one is ConflictUnknown.
func Classify(detail string) ConflictKind {
	if detail == "" {
		return ConflictNone
	}
	for _, c := range conflictOrder {
		if detail == c.detail {
			return c.kind
		}
	}
	return ConflictUnknown
}

// FieldErrors maps intent-qualified field keys such as "createKey" to
// messages
type FieldErrors map[string]string

// ErrorKey builds the error key for a field of an intent: (edit, "name") -> "editName"
func ErrorKey(intent Intent, field string) string {
	if field == "" {
		return intent.String()
	}
	return intent.String() + strings.ToUpper(field[:1]) + field[1:]
}

// Messages looks up user-facing text by catalog key
type Messages interface {
	Message(key string) string
}

// Catalog is a map-backed Messages. Unknown keys return the key itself.
type Catalog map[string]string

func (c Catalog) Message(key string) string {
	if msg, ok := c[key]; ok {
		return msg
	}
	return key
}

// English is the default catalog. Constraint messages take the field label
// and the rule parameter as fmt arguments.
var English = Catalog{
	MsgKeyConflict:  "A project with this key already exists!",
	MsgNameConflict: "A project with this name already exists!",
	MsgNameChars:    "Slashes, ':' and '?' are not allowed in the project name!",
	MsgRequired:     "%s is required",
	MsgTooShort:     "%s must be at least %s characters",
	MsgTooLong:      "%s must be at most %s characters",
	MsgOneOf:        "%s must be one of: %s",
	MsgInvalid:      "%s is invalid",
}

// Translate turns a backend detail into exactly one field error, or none.
// The kind is returned so callers can tell an unknown detail from success.
func Translate(intent Intent, detail string, messages Messages) (FieldErrors, ConflictKind) {
	if messages == nil {
		messages = English
	}

	kind := Classify(detail)
	switch kind {
	case ConflictKey:
		return FieldErrors{ErrorKey(intent, FieldKey): messages.Message(MsgKeyConflict)}, kind
	case ConflictName:
		return FieldErrors{ErrorKey(intent, FieldName): messages.Message(MsgNameConflict)}, kind
	case ConflictCharacters:
		return FieldErrors{ErrorKey(intent, FieldName): messages.Message(MsgNameChars)}, kind
	}
	return nil, kind
}
