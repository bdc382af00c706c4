// Package lexer turns kolga source bytes into a token stream. It is the
// single external collaborator the parser depends on: Next returns tokens
// one at a time, Peek looks one token ahead without consuming it.
//
// The scanning strategy (a table of stateFunc values walking rune by rune)
// follows Rob Pike's "Lexical Scanning in Go" talk. This lexer runs
// synchronously on the calling goroutine: kolga's core is single threaded
// end to end, so there is no channel/goroutine pipeline to decouple
// scanning from parsing.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"kolga/src/token"
)

const eof = -1

// stateFunc scans from the current lexer position and returns the state to
// continue with, or nil once a token has been emitted.
type stateFunc func(*Lexer) stateFunc

// Lexer scans kolga source text into tokens on demand.
type Lexer struct {
	src         string
	start       int // Start byte offset of the token being scanned.
	pos         int // Current byte offset.
	width       int // Width in bytes of the last rune read, for backup.
	line        int
	startCol    int // Column of the token's first rune.
	col         int
	peeked    *token.Token
	peekedErr error

	// emit/emitErr are the result slot state functions write into right
	// before returning nil, ending the scan() loop below.
	emit    token.Token
	emitErr error
}

// New returns a Lexer ready to scan src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Next consumes and returns the next token in the stream.
func (l *Lexer) Next() (token.Token, error) {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t, l.peekedErr
	}
	return l.scan()
}

// Peek returns the next token without consuming it. A second call to Peek
// (without an intervening Next) returns the same token.
func (l *Lexer) Peek() (token.Token, error) {
	if l.peeked == nil {
		t, err := l.scan()
		l.peeked = &t
		l.peekedErr = err
	}
	return *l.peeked, l.peekedErr
}

func (l *Lexer) scan() (token.Token, error) {
	state := lexAny
	for state != nil {
		state = state(l)
	}
	return l.emit, l.emitErr
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.src) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.width = w
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) backup() {
	l.pos -= l.width
	if l.width == 1 && l.pos < len(l.src) && l.src[l.pos] == '\n' {
		l.line--
	} else {
		l.col--
	}
}

func (l *Lexer) peekRune() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) ignore() {
	l.start = l.pos
	l.startCol = l.col
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	l.emit = token.Token{Kind: token.EOF, Line: l.line, Column: l.startCol}
	l.emitErr = fmt.Errorf(format, args...)
	return nil
}

func (l *Lexer) tok(k token.Kind) stateFunc {
	l.emit = token.Token{Kind: k, Line: l.line, Column: l.startCol}
	l.emitErr = nil
	return nil
}

func (l *Lexer) tokLexeme(k token.Kind, lexeme string) stateFunc {
	l.emit = token.Token{Kind: k, Lexeme: lexeme, Line: l.line, Column: l.startCol}
	l.emitErr = nil
	return nil
}

func lexAny(l *Lexer) stateFunc {
	for {
		r := l.next()
		switch {
		case r == eof:
			return l.tok(token.EOF)
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.ignore()
			continue
		case r == '/' && l.peekRune() == '/':
			lexLineComment(l)
			l.ignore()
			continue
		}
		l.start = l.pos - l.width
		l.startCol = l.col - 1
		switch r {
		case '(':
			return l.tok(token.LeftParen)
		case ')':
			return l.tok(token.RightParen)
		case '{':
			return l.tok(token.LeftBrace)
		case '}':
			return l.tok(token.RightBrace)
		case ';':
			return l.tok(token.Semicolon)
		case ',':
			return l.tok(token.Comma)
		case '~':
			return l.tok(token.Tilde)
		case '.':
			return l.tok(token.Period)
		case '+':
			return l.tok(token.Plus)
		case '-':
			return l.tok(token.Minus)
		case '*':
			return l.tok(token.Star)
		case '/':
			return l.tok(token.Slash)
		case '=':
			if l.peekRune() == '=' {
				l.next()
				return l.tok(token.EqEq)
			}
			return l.tok(token.Eq)
		case '!':
			if l.peekRune() == '=' {
				l.next()
				return l.tok(token.BangEq)
			}
			return l.tok(token.Bang)
		case '<':
			if l.peekRune() == '=' {
				l.next()
				return l.tok(token.LtEq)
			}
			return l.tok(token.Lt)
		case '>':
			if l.peekRune() == '=' {
				l.next()
				return l.tok(token.GtEq)
			}
			return l.tok(token.Gt)
		case '&':
			if l.peekRune() == '&' {
				l.next()
				return l.tok(token.AmpAmp)
			}
			return l.errorf("line %d:%d: unexpected character %q", l.line, l.startCol, r)
		case '|':
			if l.peekRune() == '|' {
				l.next()
				return l.tok(token.PipePipe)
			}
			return l.errorf("line %d:%d: unexpected character %q", l.line, l.startCol, r)
		case '"':
			return lexString(l)
		default:
			if isDigit(r) {
				l.backup()
				return lexNumber(l)
			}
			if isIdentStart(r) {
				l.backup()
				return lexIdent(l)
			}
			return l.errorf("line %d:%d: unexpected character %q", l.line, l.startCol, r)
		}
	}
}

func lexLineComment(l *Lexer) {
	l.next() // consume the second '/'.
	for {
		r := l.next()
		if r == '\n' || r == eof {
			if r != eof {
				l.backup()
			}
			return
		}
	}
}

func lexString(l *Lexer) stateFunc {
	sb := strings.Builder{}
	for {
		r := l.next()
		if r == eof {
			return l.errorf("line %d:%d: unterminated string literal", l.line, l.startCol)
		}
		if r == '"' {
			return l.tokLexeme(token.Str, sb.String())
		}
		if r == '\\' {
			esc := l.next()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
}

func lexNumber(l *Lexer) stateFunc {
	for isDigit(l.peekRune()) {
		l.next()
	}
	if l.peekRune() == '.' {
		l.next()
		for isDigit(l.peekRune()) {
			l.next()
		}
	}
	lexeme := l.src[l.start:l.pos]
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return l.errorf("line %d:%d: invalid number literal %q", l.line, l.startCol, lexeme)
	}
	l.emit = token.Token{Kind: token.Val, Num: v, Line: l.line, Column: l.startCol}
	l.emitErr = nil
	return nil
}

func lexIdent(l *Lexer) stateFunc {
	for isIdentPart(l.peekRune()) {
		l.next()
	}
	name := l.src[l.start:l.pos]
	if kw, ok := token.Keywords[name]; ok {
		return l.tokLexeme(kw, name)
	}
	return l.tokLexeme(token.Ident, name)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
