package types

import (
	"errors"
	"strings"
)

var (
	ErrInvalidEmailAddress = errors.New("invalid e-mail address, address is missing @")
)

func NewEmailParts(emailAddress string) (EmailParts, error) {
	p, err := splitLocalAndDomain(emailAddress)
	if err != nil {
		return EmailParts{}, err
	}

	return p, nil
}

type EmailParts struct {
	Address string
	Local   string
	Domain  string
}

// DomainOf returns the part after the last @, or an empty string when the address can't be split.
func DomainOf(emailAddress string) string {
	p, err := splitLocalAndDomain(emailAddress)
	if err != nil {
		return ""
	}

	return p.Domain
}

func splitLocalAndDomain(input string) (EmailParts, error) {
	i := strings.LastIndex(input, "@")
	if 0 >= i || i >= len(input)-1 {
		return EmailParts{}, ErrInvalidEmailAddress
	}

	return EmailParts{
		Address: input,
		Local:   input[:i],
		Domain:  input[i+1:],
	}, nil
}
