package commands

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/Rohanpatel16/projectverify/cmd/verify-cli/iterator"
)

type csvOptions struct {
	skipRows uint64
	column   uint64
}

func createTextIterator(r io.Reader) *iterator.CallbackIterator {
	scanner := bufio.NewScanner(r)

	return iterator.NewCallbackIterator(
		scanner.Scan,
		func() (string, error) {
			return strings.TrimSpace(scanner.Text()), nil
		},
		scanner.Err,
	)
}

// createCSVIterator reads a single column, rows that are too short produce an empty value
func createCSVIterator(r io.Reader, opts csvOptions) *iterator.CallbackIterator {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var lastError error
	var value string

	for toSkip := opts.skipRows; toSkip > 0; toSkip-- {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			lastError = err
		}
	}

	return iterator.NewCallbackIterator(
		func() bool {
			record, err := reader.Read()
			if err == io.EOF {
				return false
			}

			value = ""
			if err != nil {
				lastError = err
				return true
			}

			if uint64(len(record)) > opts.column {
				value = strings.TrimSpace(record[opts.column])
			}

			return true
		},
		func() (string, error) {
			return value, nil
		},
		func() error {
			return lastError
		},
	)
}
