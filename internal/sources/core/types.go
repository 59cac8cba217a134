package core

import (
	"encoding/json"
	"strings"
)

// SearchResponse represents the top-level response from the CORE v3 works
// search endpoint.
type SearchResponse struct {
	Results []WorkEntry `json:"results"`
}

// WorkEntry represents a single work in a CORE search response.
type WorkEntry struct {
	ID            flexibleID   `json:"id"`
	Title         string       `json:"title"`
	Abstract      string       `json:"abstract"`
	PublishedDate string       `json:"publishedDate"`
	Authors       []coreAuthor `json:"authors"`
	DownloadURL   string       `json:"downloadUrl"`
	FullTextURL   string       `json:"fullTextUrl"`
	URI           string       `json:"uri"`
}

// flexibleID accepts CORE identifiers serialized as either a JSON number
// or a string.
type flexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexibleID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexibleID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = flexibleID(num.String())
	return nil
}

// coreAuthor accepts author entries serialized as either an object with a
// name field or a bare string.
type coreAuthor struct {
	Name string
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *coreAuthor) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		return json.Unmarshal(data, &a.Name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Name = obj.Name
	return nil
}
