package settings

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StoreKind names a Store implementation
type StoreKind string

const (
	KindMemory   StoreKind = "memory"
	KindFile     StoreKind = "file"
	KindPostgres StoreKind = "postgres"
)

// StoreKinds lists the supported kinds
func StoreKinds() []StoreKind {
	return []StoreKind{KindFile, KindMemory, KindPostgres}
}

// Open creates the Store of the given kind. location is the directory for KindFile (empty meaning DefaultDir) and
// the DSN for KindPostgres, it's ignored for KindMemory.
func Open(kind StoreKind, location string, logger logrus.FieldLogger) (Store, error) {
	switch kind {
	case KindMemory:
		return NewMemory(), nil
	case "", KindFile:
		f, err := NewFile(location)
		if err != nil {
			return nil, err
		}

		return f, nil
	case KindPostgres:
		p, err := OpenPostgres(location, logger)
		if err != nil {
			return nil, err
		}

		return p, nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownStore, kind)
}
