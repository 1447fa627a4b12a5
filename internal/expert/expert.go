// Package expert defines the closed set of mentor personas a student can be
// talking to.
package expert

import (
	"fmt"
	"strings"
)

// Expert identifies the persona that currently owns the dialogue.
type Expert string

const (
	Registrator Expert = "registrator"
	Interview   Expert = "interview"
	Teacher     Expert = "teacher"
	Test        Expert = "test"
)

// Default is the persona assigned to a newly created student.
const Default = Registrator

// All lists every persona in hand-off order.
var All = []Expert{Registrator, Interview, Teacher, Test}

// aliases accepts the long identifiers some replies use.
var aliases = map[string]Expert{
	"registrator_expert": Registrator,
	"interview_expert":   Interview,
	"teacher_expert":     Teacher,
	"test_expert":        Test,
}

// Valid reports whether e is one of the known personas.
func (e Expert) Valid() bool {
	switch e {
	case Registrator, Interview, Teacher, Test:
		return true
	}
	return false
}

func (e Expert) String() string { return string(e) }

// Parse normalizes s into a known persona. Surrounding whitespace and case
// are ignored and the "<name>_expert" aliases are accepted.
func Parse(s string) (Expert, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if e := Expert(norm); e.Valid() {
		return e, nil
	}
	if e, ok := aliases[norm]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown expert %q", s)
}
