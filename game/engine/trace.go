package engine

import (
	"strconv"
	"strings"
)

// Trace records the value of a condition node and of every node below it
type Trace struct {
	Description string   `json:"description"`
	Result      bool     `json:"result"`
	Children    []*Trace `json:"children,omitempty"`
}

// Render formats the trace with dotted numbering, one node per line:
//
//	All of the following should be true [F]
//	    1. destination should be empty [F]
//	    2. At least one of the following should be true [T]
//	        2.1. ...
func (t *Trace) Render() string {
	var b strings.Builder
	t.render(&b, nil)
	return b.String()
}

func (t *Trace) render(b *strings.Builder, index []int) {
	b.WriteString(strings.Repeat("    ", len(index)))
	if len(index) > 0 {
		parts := make([]string, len(index))
		for i, n := range index {
			parts[i] = strconv.Itoa(n)
		}
		b.WriteString(strings.Join(parts, ".") + ". ")
	}
	b.WriteString(t.Description)
	if t.Result {
		b.WriteString(" [T]\n")
	} else {
		b.WriteString(" [F]\n")
	}
	for i, child := range t.Children {
		next := append(append([]int(nil), index...), i+1)
		child.render(b, next)
	}
}

// Failed returns the descriptions of the false leaves, in order
func (t *Trace) Failed() []string {
	if len(t.Children) == 0 {
		if t.Result {
			return nil
		}
		return []string{t.Description}
	}
	var out []string
	for _, c := range t.Children {
		out = append(out, c.Failed()...)
	}
	return out
}

func check(description string, ok bool) *Trace {
	return &Trace{Description: description, Result: ok}
}
