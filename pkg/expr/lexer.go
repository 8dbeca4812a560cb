package expr

// Lexer tokenizes a single expression source string.
type Lexer struct {
	input string
	pos   int  // current position (points at ch)
	next  int  // reading position (after ch)
	ch    byte // current byte, 0 at EOF
}

// NewLexer creates a lexer over the given source string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.next >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.next]
	}
	l.pos = l.next
	l.next++
}

func (l *Lexer) peekChar() byte {
	if l.next >= len(l.input) {
		return 0
	}
	return l.input[l.next]
}

// NextToken returns the next token in the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos}

	switch l.ch {
	case 0:
		tok.Type = EOF
	case '+':
		tok = l.single(PLUS)
	case '-':
		tok = l.single(MINUS)
	case '*':
		tok = l.single(ASTERISK)
	case '/':
		tok = l.single(SLASH)
	case '%':
		tok = l.single(PERCENT)
	case '?':
		tok = l.single(QUESTION)
	case ':':
		tok = l.single(COLON)
	case ',':
		tok = l.single(COMMA)
	case '.':
		tok = l.single(DOT)
	case '(':
		tok = l.single(LPAREN)
	case ')':
		tok = l.single(RPAREN)
	case '<':
		tok = l.maybeTwo(LT, '=', LTE)
	case '>':
		tok = l.maybeTwo(GT, '=', GTE)
	case '=':
		if l.peekChar() == '=' {
			tok = l.two(EQ)
		} else {
			tok = l.single(ILLEGAL)
		}
	case '!':
		tok = l.maybeTwo(BANG, '=', NOT_EQ)
	case '&':
		if l.peekChar() == '&' {
			tok = l.two(AND)
		} else {
			tok = l.single(ILLEGAL)
		}
	case '|':
		if l.peekChar() == '|' {
			tok = l.two(OR)
		} else {
			tok = l.single(ILLEGAL)
		}
	case '\'', '"':
		tok.Type = STRING
		literal, ok := l.readString(l.ch)
		tok.Literal = literal
		if !ok {
			tok.Type = ILLEGAL
		}
		return tok
	case '#':
		tok.Type = COLOR
		tok.Literal = l.readColor()
		return tok
	default:
		switch {
		case isDigit(l.ch):
			tok.Type = NUMBER
			tok.Literal = l.readNumber()
			return tok
		case isIdentStart(l.ch):
			tok.Literal = l.readIdentifier()
			if keyword, ok := keywords[tok.Literal]; ok {
				tok.Type = keyword
			} else {
				tok.Type = IDENT
			}
			return tok
		default:
			tok = l.single(ILLEGAL)
		}
	}

	return tok
}

func (l *Lexer) single(t TokenType) Token {
	tok := Token{Type: t, Literal: string(l.ch), Pos: l.pos}
	l.readChar()
	return tok
}

func (l *Lexer) two(t TokenType) Token {
	pos := l.pos
	first := l.ch
	l.readChar()
	literal := string(first) + string(l.ch)
	l.readChar()
	return Token{Type: t, Literal: literal, Pos: pos}
}

func (l *Lexer) maybeTwo(one TokenType, second byte, both TokenType) Token {
	if l.peekChar() == second {
		return l.two(both)
	}
	return l.single(one)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readString consumes a quoted string, returning the unescaped contents.
// The second result is false if the closing quote is missing.
func (l *Lexer) readString(quote byte) (string, bool) {
	var out []byte
	l.readChar() // consume opening quote
	for l.ch != quote {
		if l.ch == 0 {
			return string(out), false
		}
		if l.ch == '\\' {
			switch l.peekChar() {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case '\\', '\'', '"':
				out = append(out, l.peekChar())
			default:
				out = append(out, '\\', l.peekChar())
			}
			l.readChar()
		} else {
			out = append(out, l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume closing quote
	return string(out), true
}

func (l *Lexer) readColor() string {
	start := l.pos
	l.readChar() // consume '#'
	for isHexDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
