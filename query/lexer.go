package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes SQL query strings
type Lexer struct {
	input string
	pos   int // byte offset after ch
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input) + 1
		return
	}
	r, width := utf8.DecodeRuneInString(l.input[l.pos:])
	l.ch = r
	l.pos += width
}

// eof reports whether the input is exhausted. A NUL rune inside the input
// is a character, not the end.
func (l *Lexer) eof() bool { return l.pos > len(l.input) }

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// skipWhitespace skips whitespace and "--" line comments
func (l *Lexer) skipWhitespace() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch != '-' || l.peekChar() != '-' {
			return
		}
		for l.ch != '\n' && !l.eof() {
			l.readChar()
		}
	}
}

// readString reads a quoted string. A doubled quote stands for one quote
// character; backslash escapes \n, \t, \\ and \<quote> are also accepted.
func (l *Lexer) readString(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for {
		switch {
		case l.eof():
			return result.String(), false
		case l.ch == quote && l.peekChar() == quote:
			result.WriteRune(quote)
			l.readChar()
		case l.ch == quote:
			l.readChar() // skip closing quote
			return result.String(), true
		case l.ch == '\\' && quote == '\'':
			l.readChar()
			if l.eof() {
				return result.String(), false
			}
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			default:
				result.WriteRune(l.ch)
			}
		default:
			result.WriteRune(l.ch)
		}
		l.readChar()
	}
}

// readNumber reads a number
func (l *Lexer) readNumber() string {
	var result strings.Builder

	// Handle optional leading minus sign
	if l.ch == '-' {
		result.WriteRune(l.ch)
		l.readChar()
	}

	for unicode.IsDigit(l.ch) || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}

	// Exponent
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if unicode.IsDigit(next) || next == '-' || next == '+' {
			result.WriteRune(l.ch)
			l.readChar()
			result.WriteRune(l.ch)
			l.readChar()
			for unicode.IsDigit(l.ch) {
				result.WriteRune(l.ch)
				l.readChar()
			}
		}
	}
	return result.String()
}

func isIdentChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.' || ch == '-' || ch == '$'
}

// readIdentifier reads an identifier or keyword. Identifiers may contain
// dots and dashes so that file names like sales-2024.csv and qualified
// names like e.name lex as one token; a trailing ".*" is kept as part of
// the identifier.
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for isIdentChar(l.ch) {
		if l.ch == '.' && l.peekChar() == '*' {
			result.WriteString(".*")
			l.readChar()
			l.readChar()
			break
		}
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// readQuotedIdentifier reads a "quoted" or `quoted` identifier, which may be
// qualified by or qualify another identifier part.
func (l *Lexer) readQuotedIdentifier() Token {
	var parts []string
	for {
		var part string
		switch {
		case l.ch == '"' || l.ch == '`':
			var ok bool
			part, ok = l.readString(l.ch)
			if !ok {
				return Token{Type: TokenError, Value: "unterminated quoted identifier"}
			}
		case l.ch == '*':
			part = "*"
			l.readChar()
		case unicode.IsLetter(l.ch) || l.ch == '_':
			part = l.readIdentifier()
		default:
			return Token{Type: TokenError, Value: "expected identifier after '.'"}
		}
		parts = append(parts, part)

		if l.ch != '.' || part == "*" {
			break
		}
		l.readChar()
	}
	return Token{Type: TokenIdent, Value: strings.Join(parts, ".")}
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.eof() {
		return Token{Type: TokenEOF, Value: ""}
	}

	var tok Token

	switch l.ch {
	case 0:
		tok = Token{Type: TokenError, Value: "unexpected NUL character"}
		l.readChar()
	case '=':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
		}
		tok = Token{Type: TokenEqual, Value: "="}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "!="}
			l.readChar()
		} else {
			tok = Token{Type: TokenError, Value: "!"}
			l.readChar()
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: TokenLessEqual, Value: "<="}
		case '>':
			l.readChar()
			tok = Token{Type: TokenNotEqual, Value: "<>"}
		default:
			tok = Token{Type: TokenLess, Value: "<"}
		}
		l.readChar()
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGreaterEqual, Value: ">="}
		} else {
			tok = Token{Type: TokenGreater, Value: ">"}
		}
		l.readChar()
	case '\'':
		value, ok := l.readString('\'')
		if !ok {
			return Token{Type: TokenError, Value: "unterminated string"}
		}
		tok = Token{Type: TokenString, Value: value}
	case '"', '`':
		tok = l.readQuotedIdentifier()
	case '*':
		tok = Token{Type: TokenIdent, Value: "*"}
		l.readChar()
	case ',':
		tok = Token{Type: TokenComma, Value: ","}
		l.readChar()
	case '(':
		tok = Token{Type: TokenLeftParen, Value: "("}
		l.readChar()
	case ')':
		tok = Token{Type: TokenRightParen, Value: ")"}
		l.readChar()
	case ';':
		tok = Token{Type: TokenSemicolon, Value: ";"}
		l.readChar()
	default:
		if unicode.IsDigit(l.ch) || (l.ch == '-' && (unicode.IsDigit(l.peekChar()) || l.peekChar() == '.')) || (l.ch == '.' && unicode.IsDigit(l.peekChar())) {
			tok = Token{Type: TokenNumber, Value: l.readNumber()}
		} else if unicode.IsLetter(l.ch) || l.ch == '_' {
			value := l.readIdentifier()
			tok = Token{Type: identifierType(value), Value: value}
		} else {
			tok = Token{Type: TokenError, Value: string(l.ch)}
			l.readChar()
		}
	}

	return tok
}

var keywords = map[string]TokenType{
	"SELECT":   TokenSelect,
	"FROM":     TokenFrom,
	"WHERE":    TokenWhere,
	"AND":      TokenAnd,
	"OR":       TokenOr,
	"AS":       TokenAs,
	"GROUP":    TokenGroup,
	"BY":       TokenBy,
	"HAVING":   TokenHaving,
	"ORDER":    TokenOrder,
	"ASC":      TokenAsc,
	"DESC":     TokenDesc,
	"LIMIT":    TokenLimit,
	"OFFSET":   TokenOffset,
	"IN":       TokenIn,
	"LIKE":     TokenLike,
	"BETWEEN":  TokenBetween,
	"IS":       TokenIs,
	"NOT":      TokenNot,
	"NULL":     TokenNull,
	"DISTINCT": TokenDistinct,
	"CASE":     TokenCase,
	"WHEN":     TokenWhen,
	"THEN":     TokenThen,
	"ELSE":     TokenElse,
	"END":      TokenEnd,
	"JOIN":     TokenJoin,
	"INNER":    TokenInner,
	"LEFT":     TokenLeft,
	"RIGHT":    TokenRight,
	"FULL":     TokenFull,
	"OUTER":    TokenOuter,
	"CROSS":    TokenCross,
	"ON":       TokenOn,
	"TRUE":     TokenBool,
	"FALSE":    TokenBool,
}

// identifierType determines if an identifier is a keyword. Keywords are
// case-insensitive.
func identifierType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToUpper(ident)]; ok {
		return tokType
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
