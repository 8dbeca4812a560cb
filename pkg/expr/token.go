package expr

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Literals
	NUMBER // 30, 0.5
	STRING // 'text' or "text"
	IDENT  // width, previous, safearea
	COLOR  // #f00, #ff0000, #ff0000cc
	TRUE   // true
	FALSE  // false

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // % (postfix, percentage of the container dimension)
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	EQ       // ==
	NOT_EQ   // !=
	AND      // &&
	OR       // ||
	BANG     // !
	QUESTION // ?
	COLON    // :

	// Delimiters
	COMMA  // ,
	DOT    // .
	LPAREN // (
	RPAREN // )
)

var tokenNames = map[TokenType]string{
	ILLEGAL:  "ILLEGAL",
	EOF:      "EOF",
	NUMBER:   "NUMBER",
	STRING:   "STRING",
	IDENT:    "IDENT",
	COLOR:    "COLOR",
	TRUE:     "TRUE",
	FALSE:    "FALSE",
	PLUS:     "+",
	MINUS:    "-",
	ASTERISK: "*",
	SLASH:    "/",
	PERCENT:  "%",
	LT:       "<",
	GT:       ">",
	LTE:      "<=",
	GTE:      ">=",
	EQ:       "==",
	NOT_EQ:   "!=",
	AND:      "&&",
	OR:       "||",
	BANG:     "!",
	QUESTION: "?",
	COLON:    ":",
	COMMA:    ",",
	DOT:      ".",
	LPAREN:   "(",
	RPAREN:   ")",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is one lexical unit of an expression source string.
type Token struct {
	Type    TokenType
	Literal string
	// Pos is the byte offset of the token within the source string.
	Pos int
}

var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
}
