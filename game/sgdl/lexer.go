package sgdl

import (
	"errors"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// word is one whitespace separated element of a line: a brace list, an
// operator or a plain atom.
type word struct {
	Pos  lexer.Position
	List *list  `  @@`
	Op   string `| @Op`
	Atom string `| @(Ident | Int)`
}

type list struct {
	Items []string `"{" ( @(Ident | Int) ( "," @(Ident | Int) )* )? "}"`
}

type tokens struct {
	Words []*word `@@*`
}

var lineParser = participle.MustBuild[tokens](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "comment", Pattern: `#[^\n]*`},
		{Name: "whitespace", Pattern: `[ \t\r]+`},
		{Name: "Op", Pattern: `[=!<>]+`},
		{Name: "Int", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[$A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Punct", Pattern: `[{},]`},
	})),
	participle.Elide("comment", "whitespace"),
	participle.UseLookahead(2),
)

func (w *word) text() string {
	if w.List != nil {
		return "{" + strings.Join(w.List.Items, ", ") + "}"
	}
	if w.Op != "" {
		return w.Op
	}
	return w.Atom
}

// items returns the entries of a brace list, or the atom as a single entry
func (w *word) items() []string {
	if w.List != nil {
		return w.List.Items
	}
	return []string{w.Atom}
}

// srcLine is a tokenized, non-blank line of the description
type srcLine struct {
	num    int
	indent int
	words  []*word
}

func (l srcLine) is(keyword string) bool {
	return len(l.words) > 0 && l.words[0].List == nil && l.words[0].Atom == keyword
}

func (l srcLine) errAt(i int, err error, expected string) *ParseError {
	pe := &ParseError{Line: l.num, Column: l.indent + 1, Expected: expected, Err: err}
	if i >= 0 && i < len(l.words) {
		pe.Column = l.words[i].Pos.Column
		pe.Token = l.words[i].text()
	} else if n := len(l.words); n > 0 {
		last := l.words[n-1]
		pe.Column = last.Pos.Column + len(last.text())
	}
	return pe
}

func indentOf(raw string) int {
	n := 0
	for _, r := range raw {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// tokenize splits the text into the game name and the tokenized lines after it
func tokenize(text string) (string, []srcLine, error) {
	var (
		name  string
		lines []srcLine
	)
	for i, raw := range strings.Split(text, "\n") {
		num := i + 1
		if name == "" {
			stripped := raw
			if idx := strings.IndexByte(stripped, '#'); idx >= 0 {
				stripped = stripped[:idx]
			}
			stripped = strings.TrimSpace(stripped)
			if stripped == "" {
				continue
			}
			if strings.HasPrefix(stripped, "$") {
				return "", nil, &ParseError{Line: num, Column: 1, Token: stripped, Expected: "the game name on the first line", Err: ErrGrammar}
			}
			name = stripped
			continue
		}

		toks, err := lineParser.ParseString("", raw)
		if err != nil {
			pe := &ParseError{Line: num, Column: indentOf(raw) + 1, Expected: "words, operators or {a, b} lists", Err: ErrGrammar}
			var perr participle.Error
			if errors.As(err, &perr) {
				pe.Column = perr.Position().Column
				pe.Expected = perr.Message()
			}
			return "", nil, pe
		}
		if len(toks.Words) == 0 {
			continue
		}
		lines = append(lines, srcLine{num: num, indent: indentOf(raw), words: toks.Words})
	}
	if name == "" {
		return "", nil, &ParseError{Line: 1, Column: 1, Expected: "the game name on the first line", Err: ErrGrammar}
	}
	return name, lines, nil
}
