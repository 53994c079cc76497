package weft

import "fmt"

type parseError struct {
	error error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.error.Error())
}

type duplicateLabel struct {
	Label string
}

func (e *duplicateLabel) Error() string {
	return fmt.Sprintf("duplicate label: %s", e.Label)
}

type unknownLabel struct {
	Label string
}

func (e *unknownLabel) Error() string {
	return fmt.Sprintf("unknown label: %s", e.Label)
}

type badAnchor struct {
	Got  string
	Want string
}

func (e *badAnchor) Error() string {
	return fmt.Sprintf("cannot anchor on %s; expected %s", e.Got, e.Want)
}

type missingPathCondition struct {
	Unknown string
}

func (e *missingPathCondition) Error() string {
	return fmt.Sprintf("match %s has no path condition", e.Unknown)
}

type multiplePathConditions struct {
	Unknown string
}

func (e *multiplePathConditions) Error() string {
	return fmt.Sprintf("match %s has more than one path condition", e.Unknown)
}

type pathWithoutUnknown struct {
	Unknown string
}

func (e *pathWithoutUnknown) Error() string {
	return fmt.Sprintf("neither side of the path condition starts at %s", e.Unknown)
}

type duplicateProperty struct {
	Name string
}

func (e *duplicateProperty) Error() string {
	return fmt.Sprintf("duplicate projected property: %s", e.Name)
}

// missingType is the fatal compile error raised when a role is referenced
// before its anchor's type has been established. Type and Role name the path
// segment whose annotation was omitted.
type missingType struct {
	Type string
	Role string
}

func (e *missingType) Error() string {
	return fmt.Sprintf("missing type of %s.%s", e.Type, e.Role)
}

type malformedDescription struct {
	Token string
}

func (e *malformedDescription) Error() string {
	return fmt.Sprintf("malformed step description: %s", e.Token)
}

type unknownFeed struct {
	FeedID string
}

func (e *unknownFeed) Error() string {
	return fmt.Sprintf("unknown feed: %s", e.FeedID)
}

type givenMismatch struct {
	Given string
	Start string
}

func (e *givenMismatch) Error() string {
	return fmt.Sprintf("specification given is %s but start reference is %s", e.Given, e.Start)
}
