package csvimport

import (
	"fmt"
	"strings"

	"github.com/Rohanpatel16/projectverify/permutation"
	"github.com/Rohanpatel16/projectverify/types"
)

// Mapping names the columns holding the first name, last name and domain
type Mapping struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Domain    string `json:"domain"`
}

// Validate checks that every field is mapped to an existing column
func (m Mapping) Validate(headers []string) error {
	for _, c := range []struct {
		field  string
		column string
	}{
		{field: "first name", column: m.FirstName},
		{field: "last name", column: m.LastName},
		{field: "domain", column: m.Domain},
	} {
		if c.column == "" {
			return fmt.Errorf("%w, no column selected for the %s", ErrMissingColumn, c.field)
		}

		if !contains(headers, c.column) {
			return fmt.Errorf("%w %q for the %s", ErrMissingColumn, c.column, c.field)
		}
	}

	return nil
}

// CleanDomain turns a website-ish value into a bare domain: lower-cased, without protocol, "www." or path
func CleanDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))

	for _, prefix := range []string{"http://", "https://"} {
		if strings.HasPrefix(d, prefix) {
			d = d[len(prefix):]
			break
		}
	}

	d = strings.TrimPrefix(d, "www.")

	if i := strings.Index(d, "/"); i >= 0 {
		d = d[:i]
	}

	return strings.TrimSpace(d)
}

// Generate produces the permutations for every row. Rows missing a value, or with a domain that's empty once
// cleaned, are skipped. SourceRow is the line in the file, the header being line 1.
func Generate(table Table, mapping Mapping, gen *permutation.Generator) ([]types.GeneratedEmail, error) {
	if err := mapping.Validate(table.Headers); err != nil {
		return nil, err
	}

	if gen == nil {
		gen = permutation.New()
	}

	var result []types.GeneratedEmail
	for i := range table.Rows {
		first := table.Value(i, mapping.FirstName)
		last := table.Value(i, mapping.LastName)
		rawDomain := table.Value(i, mapping.Domain)

		if first == "" || last == "" || rawDomain == "" {
			continue
		}

		domain := CleanDomain(rawDomain)
		if domain == "" {
			continue
		}

		result = append(result, gen.GenerateEmails(first, last, domain, i+2)...)
	}

	return result, nil
}

var (
	firstNameColumns = []string{"firstname", "first", "fname", "givenname", "forename"}
	lastNameColumns  = []string{"lastname", "last", "lname", "surname", "familyname"}
	domainColumns    = []string{"domain", "website", "companydomain", "companywebsite", "url", "web", "site"}
)

// Guess pre-selects columns by their header name. Fields without a likely column stay empty.
func Guess(headers []string) Mapping {
	return Mapping{
		FirstName: guessColumn(headers, firstNameColumns),
		LastName:  guessColumn(headers, lastNameColumns),
		Domain:    guessColumn(headers, domainColumns),
	}
}

func guessColumn(headers []string, candidates []string) string {
	for _, candidate := range candidates {
		for _, h := range headers {
			if normalizeHeader(h) == candidate {
				return h
			}
		}
	}

	return ""
}

func normalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}

		return r
	}, strings.ToLower(h))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}

	return false
}
