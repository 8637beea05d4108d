package commands

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Rohanpatel16/projectverify/compare"
	"github.com/Rohanpatel16/projectverify/export"
	"github.com/Rohanpatel16/projectverify/provider"
	"github.com/Rohanpatel16/projectverify/types"
)

// outputPath resolves a directory to the dated export file name inside it
func outputPath(out, prefix string, now time.Time) string {
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		return filepath.Join(out, export.FileName(prefix, now))
	}

	return out
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()

	return write(f)
}

func writeValidEmails(out string, results []provider.Result, generated []types.GeneratedEmail) error {
	path := outputPath(out, "valid-emails", time.Now())
	env.logger.WithField("file", path).Info("Writing valid addresses")

	return writeFile(path, func(w io.Writer) error {
		return export.WriteValidEmails(w, results, generated)
	})
}

func writeComparison(out string, outcomes []compare.Outcome) error {
	path := outputPath(out, "email-test-results", time.Now())
	env.logger.WithField("file", path).Info("Writing comparison")

	return writeFile(path, func(w io.Writer) error {
		return export.WriteComparison(w, outcomes)
	})
}
