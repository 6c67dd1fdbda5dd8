package model

import (
	"errors"
	"strings"
)

// ErrInvalidGender is returned for values outside the Gender enum.
var ErrInvalidGender = errors.New("invalid gender")

// Gender of an athlete.
type Gender string

// Gender values.
const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Genders lists the valid genders in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// ParseGender matches s case-insensitively against the Gender enum.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range Genders {
		if g == v {
			return v, nil
		}
	}
	return "", ErrInvalidGender
}

// Athlete is a stored athlete. Email is unique across all athletes.
type Athlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Birthdate Date   `json:"birthdate"`
	Gender    Gender `json:"gender"`
	Email     string `json:"email"`
}

// FullName returns "First Last".
func (a Athlete) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Identity is the batch-available composite key used to resolve athletes
// referenced by performance rows.
type Identity struct {
	FirstName string
	LastName  string
	Birthdate Date
}

// Identity returns the name/birthdate triple of a.
func (a Athlete) Identity() Identity {
	return Identity{FirstName: a.FirstName, LastName: a.LastName, Birthdate: a.Birthdate}
}

func (i Identity) String() string {
	return i.FirstName + " " + i.LastName + " " + i.Birthdate.String()
}
