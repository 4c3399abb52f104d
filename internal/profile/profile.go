package profile

import "encoding/json"

// Profile is the structured representation of a person derived from
// document text. Profiles are append-only: later extractions supersede
// earlier ones, nothing is overwritten.
type Profile struct {
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	ExperienceSummary string   `json:"experienceSummary,omitempty"`
	DesiredRoles      []string `json:"desiredRoles,omitempty"`
	// Raw holds the unparsed text when strict structuring failed
	Raw string `json:"raw,omitempty"`
}

// Empty reports whether the profile carries no usable content
func (p Profile) Empty() bool {
	return p.Name == "" && p.Email == "" && p.Phone == "" &&
		len(p.Skills) == 0 && p.ExperienceSummary == "" &&
		len(p.DesiredRoles) == 0 && p.Raw == ""
}

// FromJSON decodes a stored profile row payload
func FromJSON(data string) (Profile, error) {
	var p Profile
	err := json.Unmarshal([]byte(data), &p)
	return p, err
}
