package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/types"
)

// TimeFormat is the UTC, millisecond precision format used for every timestamp column
const TimeFormat = "2006-01-02T15:04:05.000Z"

var (
	validEmailsHeader = []string{"Email", "Score", "Provider", "Timestamp", "First Name", "Last Name", "Domain"}
	resultsHeader     = []string{"Email", "Valid", "Score", "Provider", "Status", "Domain", "Timestamp", "Error"}
	comparisonHeader  = []string{"Provider", "Email", "Valid", "Score", "Status", "Duration", "Error", "Timestamp"}
)

// FileName returns "<prefix>-YYYY-MM-DD.csv" for the UTC date of t
func FileName(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format("2006-01-02") + ".csv"
}

// WriteValidEmails writes the valid results, joined with the name and domain they were generated from
func WriteValidEmails(w io.Writer, results []provider.Result, generated []types.GeneratedEmail) error {
	byEmail := make(map[string]types.GeneratedEmail, len(generated))
	for _, g := range generated {
		if _, exists := byEmail[g.Email]; !exists {
			byEmail[g.Email] = g
		}
	}

	records := make([][]string, 0, len(results))
	for _, r := range results {
		if !r.IsValid {
			continue
		}

		g := byEmail[r.Email]
		records = append(records, []string{
			r.Email,
			score(r),
			string(r.Provider),
			timestamp(r.Timestamp),
			g.FirstName,
			g.LastName,
			g.Domain,
		})
	}

	return write(w, validEmailsHeader, records)
}

// WriteResults writes every result, valid or not
func WriteResults(w io.Writer, results []provider.Result) error {
	records := make([][]string, 0, len(results))
	for _, r := range results {
		records = append(records, []string{
			r.Email,
			valid(r.IsValid),
			score(r),
			string(r.Provider),
			r.Status,
			r.Domain,
			timestamp(r.Timestamp),
			r.Error,
		})
	}

	return write(w, resultsHeader, records)
}

// WriteComparison writes provider comparison outcomes, Duration in milliseconds
func WriteComparison(w io.Writer, outcomes []compare.Outcome) error {
	records := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		email := o.Result.Email
		if email == "" {
			email = o.Email
		}

		records = append(records, []string{
			string(o.Provider),
			email,
			valid(o.Result.IsValid),
			score(o.Result),
			o.Result.Status,
			strconv.FormatInt(o.Duration.Milliseconds(), 10),
			o.Result.Error,
			timestamp(o.Result.Timestamp),
		})
	}

	return write(w, comparisonHeader, records)
}

func write(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	if err := cw.WriteAll(records); err != nil {
		return err
	}

	return cw.Error()
}

// score is empty when the provider reported none, or reported 0
func score(r provider.Result) string {
	if r.ScoreValue() == 0 {
		return ""
	}

	return strconv.Itoa(r.ScoreValue())
}

func valid(v bool) string {
	if v {
		return "true"
	}

	return ""
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(TimeFormat)
}
