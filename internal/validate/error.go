package validate

import (
	"fmt"
	"reflect"
)

var (
	tagTypes = map[string][]string{
		"format":     {"email", "url", "uri", "uuid", "uuid4", "alphanum", "ascii", "numeric", "json", "hexadecimal", "e164", "iso4217", "iso3166_1_alpha2", "bcp47_language_tag"},
		"comparison": {"gtfield", "gtefield", "ltfield", "ltefield", "eq", "gt", "gte", "lt", "lte", "ne", "len", "min", "max", "oneof"},
	}
	// Message templates for length checks on strings
	stringTemplates = map[string]string{
		"len": "must be",
		"gt":  "must be more than",
		"gte": "must be or be more than",
		"lt":  "must be less than",
		"lte": "must be or be less than",
		"max": "must be or be less than",
		"min": "must be or be more than",
	}
	templates = map[string]string{
		"email":              "must be a valid Email address",
		"url":                "must be a valid URL",
		"uri":                "must be a valid URI",
		"uuid":               "must be a valid UUID",
		"uuid4":              "must be a valid UUID v4",
		"alphanum":           "must contain ASCII alphanumeric characters only",
		"ascii":              "must contain ASCII characters only",
		"numeric":            "must contain numeric values only",
		"json":               "must be a valid JSON",
		"hexadecimal":        "must be a valid Hexadecimal",
		"e164":               "must be a valid E164 formatted phone number",
		"iso4217":            "must be a valid ISO 4217 currency code",
		"iso3166_1_alpha2":   "must be a valid ISO 3166 country code",
		"bcp47_language_tag": "must be a valid language tag",
		"gtfield":            "must be greater than",
		"gtefield":           "must be greater than or equal to",
		"ltfield":            "must be less than",
		"ltefield":           "must be less than or equal to",
		"eq":                 "must be equal to",
		"gt":                 "must be greater than",
		"gte":                "must be greater than or equal to",
		"lt":                 "must be less than",
		"lte":                "must be less than or equal to",
		"ne":                 "must not be equal to",
		"len":                "must have the length of",
		"max":                "must not be greater than",
		"min":                "must not be less than",
		"oneof":              "must be one of",
		"required":           "must not be null",
		"required_without":   "must not be null",
		"dive":               "contains an invalid value",
	}
)

// FormError describes the first failing field of a payload
type FormError struct {
	TagName  string       `json:"-"`
	TagParam string       `json:"-"`
	Kind     reflect.Kind `json:"-"`
	Field    string       `json:"field"`
}

func NewFormError(kind reflect.Kind, field string, tag string, param string) error {
	return &FormError{
		Kind:     kind,
		Field:    field,
		TagName:  tag,
		TagParam: param,
	}
}

// Code returns the family of the failing tag
func (e *FormError) Code() string {
	for k, v := range tagTypes {
		for _, s := range v {
			if s == e.TagName {
				return k
			}
		}
	}
	return "validation"
}

func (e *FormError) Error() string {
	template, ok := templates[e.TagName]
	if !ok {
		return fmt.Sprintf("Invalid %s value provided", e.Field)
	}
	switch e.Code() {
	case "format":
		return fmt.Sprintf("%s %s", e.Field, template)
	case "comparison":
		if e.Kind == reflect.String && stringTemplates[e.TagName] != "" {
			char := "characters"
			if e.TagParam == "1" {
				char = "character"
			}
			return fmt.Sprintf("%s %s %s %s long", e.Field, stringTemplates[e.TagName], e.TagParam, char)
		}
		return fmt.Sprintf("%s %s %s", e.Field, template, e.TagParam)
	}
	return fmt.Sprintf("%s %s", e.Field, template)
}

func (e *FormError) Title() string {
	return "form_error"
}
