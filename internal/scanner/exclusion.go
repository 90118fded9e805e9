package scanner

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// exclusion decides whether a corpus entry is the query image itself.
type exclusion struct {
	name string
	fold bool
	c    cases.Caser
}

func newExclusion(name string, fold bool) exclusion {
	e := exclusion{name: name, fold: fold}
	if fold {
		e.c = cases.Fold()
		e.name = e.normalize(name)
	}
	return e
}

// normalize composes to NFC and case-folds, so "Photo.JPG" and a
// decomposed "photo.jpg" compare equal.
func (e exclusion) normalize(s string) string {
	return e.c.String(norm.NFC.String(s))
}

func (e exclusion) matches(entry string) bool {
	if e.name == "" {
		return false
	}
	if !e.fold {
		return entry == e.name
	}
	return e.normalize(entry) == e.name
}
