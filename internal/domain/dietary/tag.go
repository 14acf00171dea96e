// Package dietary defines the closed set of dietary tags a product can carry.
package dietary

import (
	"strings"

	"github.com/go-faster/errors"
)

// Tag is a dietary suitability label.
type Tag uint8

const (
	Vegetarian Tag = iota
	Vegan
	GlutenFree
	NutFree

	numTags
)

// ErrUnknownTag is returned when parsing a string that names no Tag.
var ErrUnknownTag = errors.New("unknown dietary tag")

var tagNames = [numTags]string{
	Vegetarian: "vegetarian",
	Vegan:      "vegan",
	GlutenFree: "gluten-free",
	NutFree:    "nut-free",
}

// All returns every tag in declaration order.
func All() []Tag {
	return []Tag{Vegetarian, Vegan, GlutenFree, NutFree}
}

func (t Tag) String() string {
	if t < numTags {
		return tagNames[t]
	}
	return "unknown"
}

// Valid reports whether t is one of the declared tags.
func (t Tag) Valid() bool {
	return t < numTags
}

// Parse converts a tag name (case-insensitive, surrounding spaces ignored)
// into a Tag.
func Parse(s string) (Tag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range tagNames {
		if n == name {
			return Tag(t), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownTag, "%q", s)
}

// Set is an immutable set of tags.
type Set uint8

// Of builds a Set from the given tags. Invalid tags are ignored.
func Of(tags ...Tag) Set {
	var s Set
	for _, t := range tags {
		s = s.Add(t)
	}
	return s
}

// ParseSet parses every name into a Set. It fails on the first unknown name.
func ParseSet(names []string) (Set, error) {
	var s Set
	for _, n := range names {
		t, err := Parse(n)
		if err != nil {
			return 0, err
		}
		s = s.Add(t)
	}
	return s, nil
}

// Add returns s with t included.
func (s Set) Add(t Tag) Set {
	if !t.Valid() {
		return s
	}
	return s | 1<<t
}

// Has reports whether t is in s.
func (s Set) Has(t Tag) bool {
	return t.Valid() && s&(1<<t) != 0
}

// ContainsAll reports whether every tag of other is also in s.
// Every set contains the empty set.
func (s Set) ContainsAll(other Set) bool {
	return s&other == other
}

// IsEmpty reports whether s has no tags.
func (s Set) IsEmpty() bool {
	return s == 0
}

// Len returns the number of tags in s.
func (s Set) Len() int {
	n := 0
	for _, t := range All() {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Tags returns the members of s in declaration order.
func (s Set) Tags() []Tag {
	out := make([]Tag, 0, numTags)
	for _, t := range All() {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the tag names of s in declaration order.
func (s Set) Strings() []string {
	tags := s.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

func (s Set) String() string {
	return "[" + strings.Join(s.Strings(), ",") + "]"
}
