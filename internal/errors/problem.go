package errors

import (
	"encoding/json"
	"maps"
)

// ProblemDetails is an RFC 7807 body. Extensions are written as top-level
// members beside the standard ones.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]any
}

// NewProblemDetails creates a problem for the request path instance
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: map[string]any{},
	}
}

// WithExtension sets an extension member; an empty string value is dropped
func (pd *ProblemDetails) WithExtension(key string, value any) *ProblemDetails {
	if s, ok := value.(string); ok && s == "" {
		return pd
	}
	pd.Extensions[key] = value
	return pd
}

// MarshalJSON writes the standard members over any extension of the same name
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	body := maps.Clone(pd.Extensions)
	if body == nil {
		body = map[string]any{}
	}
	body["type"] = pd.Type
	body["title"] = pd.Title
	body["status"] = pd.Status
	if pd.Detail != "" {
		body["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		body["instance"] = pd.Instance
	}
	return json.Marshal(body)
}
