package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical CSV column names.
const (
	FieldID          = "id"
	FieldFirstname   = "firstname"
	FieldLastname    = "lastname"
	FieldEmail       = "email"
	FieldProfession  = "profession"
	FieldDateCreated = "dateCreated"
	FieldCountry     = "country"
	FieldCity        = "city"
)

// RecordFields lists every column a CSV import reads.
var RecordFields = []string{
	FieldID,
	FieldFirstname,
	FieldLastname,
	FieldEmail,
	FieldProfession,
	FieldDateCreated,
	FieldCountry,
	FieldCity,
}

// Record is one CSV row keyed by canonical column name. A key is absent when
// the file has no such column.
type Record map[string]string

func (r Record) get(field string) (string, error) {
	v, ok := r[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingColumn, field)
	}
	return strings.TrimSpace(v), nil
}

// ToUser converts the row into a User.
func (r Record) ToUser() (*User, error) {
	vals := make(map[string]string, len(RecordFields))
	for _, f := range RecordFields {
		v, err := r.get(f)
		if err != nil {
			return nil, err
		}
		vals[f] = v
	}

	id, err := strconv.ParseInt(vals[FieldID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, vals[FieldID])
	}
	created, err := ParseDate(vals[FieldDateCreated])
	if err != nil {
		return nil, err
	}

	return &User{
		ID:          id,
		Firstname:   vals[FieldFirstname],
		Lastname:    vals[FieldLastname],
		Email:       vals[FieldEmail],
		Profession:  vals[FieldProfession],
		DateCreated: created,
		Country:     vals[FieldCountry],
		City:        vals[FieldCity],
	}, nil
}
