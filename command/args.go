package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Args holds order-independent name=value command arguments.
type Args struct {
	values map[string]string
}

// ParseArgs parses raw tokens of the form name=value. A bare token is
// stored with an empty value, which is how the usage request "?" arrives.
func ParseArgs(raw []string) (*Args, error) {
	values := make(map[string]string, len(raw))
	for _, tok := range raw {
		name, value, _ := strings.Cut(tok, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid argument %q", tok)
		}
		if _, ok := values[name]; ok {
			return nil, fmt.Errorf("duplicate argument %q", name)
		}
		values[name] = value
	}
	return &Args{values: values}, nil
}

// SetDefault stores value under name unless the argument was given.
func (a *Args) SetDefault(name, value string) {
	if _, ok := a.values[name]; !ok {
		a.values[name] = value
	}
}

// Has reports whether the argument was given, with or without a value.
func (a *Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Empty reports whether no arguments were given at all.
func (a *Args) Empty() bool {
	return len(a.values) == 0
}

// String returns the named argument's value.
func (a *Args) String(name string) (string, error) {
	v, ok := a.values[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	return v, nil
}

// Int returns the named argument's value as an integer.
func (a *Args) Int(name string) (int, error) {
	v, err := a.String(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %q: %q is not a number", name, v)
	}
	return n, nil
}

// Bool returns the named argument's value as a boolean. Accepted spellings
// are 1/0, true/false and yes/no.
func (a *Args) Bool(name string) (bool, error) {
	v, err := a.String(name)
	if err != nil {
		return false, err
	}
	switch v {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value for %q: %q is not a boolean", name, v)
	}
}

// All returns a copy of every argument, defaults included.
func (a *Args) All() map[string]string {
	all := make(map[string]string, len(a.values))
	for name, value := range a.values {
		all[name] = value
	}
	return all
}
