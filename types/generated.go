package types

// GeneratedEmail is a candidate address produced from a name and a domain. SourceRow refers to the 1-indexed line
// in the imported file (the header being line 1), or 0 when the input didn't come from a file.
type GeneratedEmail struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Domain    string `json:"domain"`
	SourceRow int    `json:"sourceRow,omitempty"`
}

// Addresses returns only the addresses, in the same order
func Addresses(generated []GeneratedEmail) []string {
	result := make([]string, 0, len(generated))
	for _, g := range generated {
		result = append(result, g.Email)
	}

	return result
}
