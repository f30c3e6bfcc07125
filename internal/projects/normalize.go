// ABOUTME: Pre-submission normalization of project form values
// ABOUTME: Uppercases keys and makes the favorite flag explicit

package projects

import (
	"net/url"
	"strings"

	"github.com/markalston/bugtracker-cli/internal/client"
)

// NormalizeCreate returns a copy of form ready for a create call: the key is
// uppercased, a legacy starred value becomes favorite, and an unchecked
// favorite becomes "false".
func NormalizeCreate(form url.Values) url.Values {
	out := cloneValues(form)

	if out.Has(FieldStarred) {
		if !out.Has(FieldFavorite) {
			out.Set(FieldFavorite, out.Get(FieldStarred))
		}
		out.Del(FieldStarred)
	}
	if out.Has(FieldKey) {
		out.Set(FieldKey, strings.ToUpper(out.Get(FieldKey)))
	}
	if !out.Has(FieldFavorite) {
		out.Set(FieldFavorite, "false")
	}
	return out
}

// NormalizeEdit returns a copy of form ready for an update call: a submitted
// key is uppercased and an absent favorite becomes "false".
func NormalizeEdit(form url.Values) url.Values {
	out := cloneValues(form)

	if out.Has(FieldKey) {
		out.Set(FieldKey, strings.ToUpper(out.Get(FieldKey)))
	}
	if !out.Has(FieldFavorite) {
		out.Set(FieldFavorite, "false")
	}
	return out
}

// Draft holds the resource fields of one submission. Nil means the field
// was not submitted.
type Draft struct {
	Name     *string `json:"name,omitempty"`
	Key      *string `json:"key,omitempty"`
	Type     *string `json:"type,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// DraftFromForm reads the resource fields out of a normalized form
func DraftFromForm(form url.Values) Draft {
	var d Draft
	if form.Has(FieldName) {
		v := form.Get(FieldName)
		d.Name = &v
	}
	if form.Has(FieldKey) {
		v := form.Get(FieldKey)
		d.Key = &v
	}
	if form.Has(FieldType) {
		v := form.Get(FieldType)
		d.Type = &v
	}
	if form.Has(FieldFavorite) {
		v := parseCheckbox(form.Get(FieldFavorite))
		d.Favorite = &v
	}
	return d
}

// Input converts the draft to a request body
func (d Draft) Input() client.ProjectInput {
	return client.ProjectInput{
		Name:     d.Name,
		Key:      d.Key,
		Type:     d.Type,
		Favorite: d.Favorite,
	}
}

func parseCheckbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
