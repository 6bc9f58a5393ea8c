package appearance

import (
	"fmt"
	"strings"
)

// InputKind tells which member of an Input is set.
type InputKind int

const (
	KindText InputKind = iota
	KindBool
	KindList
)

func (k InputKind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "string"
	}
}

// Input is a value supplied for a field.
type Input struct {
	Kind    InputKind
	Text    string
	Checked bool
	Items   []string
}

func TextInput(s string) Input { return Input{Kind: KindText, Text: s} }

func BoolInput(b bool) Input { return Input{Kind: KindBool, Checked: b} }

func ListInput(items []string) Input { return Input{Kind: KindList, Items: items} }

func (in Input) String() string {
	switch in.Kind {
	case KindBool:
		return fmt.Sprint(in.Checked)
	case KindList:
		return "[" + strings.Join(in.Items, ", ") + "]"
	default:
		return in.Text
	}
}

// buttonToken strips the optional leading slash of a button token.
func buttonToken(s string) string {
	return strings.TrimPrefix(s, "/")
}
