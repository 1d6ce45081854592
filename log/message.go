package log

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kdpdev/xsort/strutil"
)

// Message is an interface to print structured logs.
type Message interface {
	fmt.Stringer
	JSON() string
}

// InfoMessage is a generic message structure for successful operations.
type InfoMessage struct {
	Operation string `json:"operation"`
	Source    string `json:"source,omitempty"`
	Target    string `json:"target,omitempty"`
	Note      string `json:"note,omitempty"`
}

// String is the string representation of InfoMessage.
func (i InfoMessage) String() string {
	parts := make([]string, 0, 4)
	parts = append(parts, i.Operation)
	if i.Source != "" {
		parts = append(parts, i.Source)
	}
	if i.Target != "" {
		parts = append(parts, i.Target)
	}
	if i.Note != "" {
		parts = append(parts, i.Note)
	}
	return strings.Join(parts, " ")
}

// JSON is the JSON representation of InfoMessage.
func (i InfoMessage) JSON() string {
	return strutil.JSON(i)
}

// ProgressMessage reports stage progress in whole percents.
type ProgressMessage struct {
	Operation string `json:"operation"`
	Percent   int    `json:"percent"`
}

// String is the string representation of ProgressMessage.
func (p ProgressMessage) String() string {
	return fmt.Sprintf("%v progress: %d%%", p.Operation, p.Percent)
}

// JSON is the JSON representation of ProgressMessage.
func (p ProgressMessage) JSON() string {
	return strutil.JSON(p)
}

// ErrorMessage is a generic message structure for unsuccessful operations.
type ErrorMessage struct {
	Operation string `json:"operation,omitempty"`
	Command   string `json:"command,omitempty"`
	Err       string `json:"error"`
}

// String is the string representation of ErrorMessage.
func (e ErrorMessage) String() string {
	if e.Command == "" {
		return e.Err
	}
	return fmt.Sprintf("%q: %v", e.Command, e.Err)
}

// JSON is the JSON representation of ErrorMessage.
func (e ErrorMessage) JSON() string {
	return strutil.JSON(e)
}

// DebugMessage is a generic message structure for diagnostics.
type DebugMessage struct {
	Operation string `json:"operation,omitempty"`
	Content   string `json:"message"`
}

// String is the string representation of DebugMessage.
func (d DebugMessage) String() string {
	if d.Operation == "" {
		return d.Content
	}
	return fmt.Sprintf("%v: %v", d.Operation, d.Content)
}

// JSON is the JSON representation of DebugMessage.
func (d DebugMessage) JSON() string {
	return strutil.JSON(d)
}

// RunsMessage lists the sorted-run inventory produced by the sort stage.
type RunsMessage struct {
	Count int      `json:"count"`
	Paths []string `json:"paths"`
}

// String is the string representation of RunsMessage.
func (r RunsMessage) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sorted files (%d):", r.Count)
	for _, p := range r.Paths {
		sb.WriteString("\n  ")
		sb.WriteString(p)
	}
	return sb.String()
}

// JSON is the JSON representation of RunsMessage.
func (r RunsMessage) JSON() string {
	return strutil.JSON(r)
}

// ArgsMessage echoes the effective arguments as an aligned table.
type ArgsMessage map[string]string

// String is the string representation of ArgsMessage.
func (a ArgsMessage) String() string {
	names := make([]string, 0, len(a))
	width := 0
	for name := range a {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("args:")
	for _, name := range names {
		fmt.Fprintf(&sb, "\n  %-*s : %v", width, name, a[name])
	}
	return sb.String()
}

// JSON is the JSON representation of ArgsMessage.
func (a ArgsMessage) JSON() string {
	return strutil.JSON(a)
}
