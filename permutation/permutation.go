package permutation

import (
	"unicode"
	"unicode/utf8"

	"github.com/Rohanpatel16/projectverify/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Count is the number of addresses produced for every name/domain combination
const Count = 8

type Option func(g *Generator)

// WithASCIIFold strips diacritics from names, e.g. "José" becomes "jose"
func WithASCIIFold() Option {
	return func(g *Generator) {
		g.fold = true
	}
}

func New(options ...Option) *Generator {
	g := &Generator{}
	for _, opt := range options {
		opt(g)
	}

	return g
}

// Generator produces candidate addresses. It doesn't validate its input, callers should skip empty values.
type Generator struct {
	fold bool
}

var defaultGenerator = New()

// Generate returns the 8 patterns, in order: first.last, firstlast, first_last, first, last, first + last initial,
// first initial + last and last + first initial.
func Generate(firstName, lastName, domain string) []string {
	return defaultGenerator.Generate(firstName, lastName, domain)
}

func (g *Generator) Generate(firstName, lastName, domain string) []string {
	first := g.normalize(firstName)
	last := g.normalize(lastName)
	at := "@" + lower(domain)

	fi := initial(first)
	li := initial(last)

	return []string{
		first + "." + last + at,
		first + last + at,
		first + "_" + last + at,
		first + at,
		last + at,
		first + li + at,
		fi + last + at,
		last + fi + at,
	}
}

// GenerateEmails is Generate, with the input carried along for every address
func (g *Generator) GenerateEmails(firstName, lastName, domain string, sourceRow int) []types.GeneratedEmail {
	emails := g.Generate(firstName, lastName, domain)
	result := make([]types.GeneratedEmail, 0, len(emails))

	for _, email := range emails {
		result = append(result, types.GeneratedEmail{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Domain:    domain,
			SourceRow: sourceRow,
		})
	}

	return result
}

// Dedupe removes repeated addresses, keeping the first occurrence. Identical first and last names produce duplicates.
func Dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	result := make([]string, 0, len(emails))

	for _, email := range emails {
		if _, ok := seen[email]; ok {
			continue
		}

		seen[email] = struct{}{}
		result = append(result, email)
	}

	return result
}

func (g *Generator) normalize(name string) string {
	if g.fold {
		// Casers and transformers are stateful, so they're not shared
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, name); err == nil {
			name = folded
		}
	}

	return lower(name)
}

func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func initial(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}

	return s[:size]
}
