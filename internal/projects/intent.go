// ABOUTME: Mutation intents and form field names for project submissions
// ABOUTME: The intent field selects which handler a submission is routed to

package projects

// Form field names
const (
	FieldIntent    = "intent"
	FieldProjectID = "projectId"
	FieldName      = "name"
	FieldKey       = "key"
	FieldType      = "type"
	FieldFavorite  = "favorite"
	// FieldStarred is the create form's legacy name for FieldFavorite
	FieldStarred = "starred"
)

// Project types offered by the forms
var ProjectTypes = []string{"Fullstack", "Back-end", "Front-end"}

type Intent int

const (
	IntentUnknown Intent = iota
	IntentCreate
	IntentEdit
	IntentDelete
)

// ParseIntent maps the intent field to an Intent. Anything unrecognised,
// including an empty value, is IntentUnknown.
func ParseIntent(s string) Intent {
	switch s {
	case "create":
		return IntentCreate
	case "edit":
		return IntentEdit
	case "delete":
		return IntentDelete
	}
	return IntentUnknown
}

func (i Intent) String() string {
	switch i {
	case IntentCreate:
		return "create"
	case IntentEdit:
		return "edit"
	case IntentDelete:
		return "delete"
	}
	return ""
}
