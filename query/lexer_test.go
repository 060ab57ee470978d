package query

import (
	"testing"
)

func checkTokens(t *testing.T, input string, expected []Token) {
	t.Helper()
	tokens := Tokenize(input)
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Type != expected[i].Type {
			t.Errorf("token %d: expected type %v, got %v", i, expected[i].Type, tok.Type)
		}
		if tok.Value != expected[i].Value {
			t.Errorf("token %d: expected value %q, got %q", i, expected[i].Value, tok.Value)
		}
	}
}

func TestLexer_Keywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "case insensitive keywords",
			input: "select FROM where",
			expected: []Token{
				{Type: TokenSelect, Value: "select"},
				{Type: TokenFrom, Value: "FROM"},
				{Type: TokenWhere, Value: "where"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "join keywords",
			input: "LEFT OUTER JOIN right full cross inner on",
			expected: []Token{
				{Type: TokenLeft, Value: "LEFT"},
				{Type: TokenOuter, Value: "OUTER"},
				{Type: TokenJoin, Value: "JOIN"},
				{Type: TokenRight, Value: "right"},
				{Type: TokenFull, Value: "full"},
				{Type: TokenCross, Value: "cross"},
				{Type: TokenInner, Value: "inner"},
				{Type: TokenOn, Value: "on"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "booleans",
			input: "TRUE false",
			expected: []Token{
				{Type: TokenBool, Value: "TRUE"},
				{Type: TokenBool, Value: "false"},
				{Type: TokenEOF, Value: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkTokens(t, tt.input, tt.expected)
		})
	}
}

func TestLexer_Operators(t *testing.T) {
	checkTokens(t, "= == != <> < > <= >=", []Token{
		{Type: TokenEqual, Value: "="},
		{Type: TokenEqual, Value: "="},
		{Type: TokenNotEqual, Value: "!="},
		{Type: TokenNotEqual, Value: "<>"},
		{Type: TokenLess, Value: "<"},
		{Type: TokenGreater, Value: ">"},
		{Type: TokenLessEqual, Value: "<="},
		{Type: TokenGreaterEqual, Value: ">="},
		{Type: TokenEOF, Value: ""},
	})
}

func TestLexer_Literals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "numbers",
			input: "42 3.14 .5 1e3 2.5E-2",
			expected: []Token{
				{Type: TokenNumber, Value: "42"},
				{Type: TokenNumber, Value: "3.14"},
				{Type: TokenNumber, Value: ".5"},
				{Type: TokenNumber, Value: "1e3"},
				{Type: TokenNumber, Value: "2.5E-2"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "negative number after operator",
			input: "age>-1",
			expected: []Token{
				{Type: TokenIdent, Value: "age"},
				{Type: TokenGreater, Value: ">"},
				{Type: TokenNumber, Value: "-1"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "strings with escapes",
			input: `'it''s' 'a\'b' 'tab\there'`,
			expected: []Token{
				{Type: TokenString, Value: "it's"},
				{Type: TokenString, Value: "a'b"},
				{Type: TokenString, Value: "tab\there"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "utf-8 string",
			input: "'naïve 東京'",
			expected: []Token{
				{Type: TokenString, Value: "naïve 東京"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "unterminated string",
			input: "name = 'abc",
			expected: []Token{
				{Type: TokenIdent, Value: "name"},
				{Type: TokenEqual, Value: "="},
				{Type: TokenError, Value: "unterminated string"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkTokens(t, tt.input, tt.expected)
		})
	}
}

func TestLexer_Identifiers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "qualified names and file names",
			input: "e.name sales-2024 _id",
			expected: []Token{
				{Type: TokenIdent, Value: "e.name"},
				{Type: TokenIdent, Value: "sales-2024"},
				{Type: TokenIdent, Value: "_id"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "star and qualified star",
			input: "*, p.*",
			expected: []Token{
				{Type: TokenIdent, Value: "*"},
				{Type: TokenComma, Value: ","},
				{Type: TokenIdent, Value: "p.*"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "quoted identifiers",
			input: "\"first name\" `order` \"p\".name \"a\"\"b\"",
			expected: []Token{
				{Type: TokenIdent, Value: "first name"},
				{Type: TokenIdent, Value: "order"},
				{Type: TokenIdent, Value: "p.name"},
				{Type: TokenIdent, Value: "a\"b"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "unicode identifier",
			input: "größe",
			expected: []Token{
				{Type: TokenIdent, Value: "größe"},
				{Type: TokenEOF, Value: ""},
			},
		},
		{
			name:  "unterminated quoted identifier",
			input: "\"abc",
			expected: []Token{
				{Type: TokenError, Value: "unterminated quoted identifier"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkTokens(t, tt.input, tt.expected)
		})
	}
}

func TestLexer_Comments(t *testing.T) {
	checkTokens(t, "SELECT -- pick everything\n* FROM df; -- done", []Token{
		{Type: TokenSelect, Value: "SELECT"},
		{Type: TokenIdent, Value: "*"},
		{Type: TokenFrom, Value: "FROM"},
		{Type: TokenIdent, Value: "df"},
		{Type: TokenSemicolon, Value: ";"},
		{Type: TokenEOF, Value: ""},
	})
}

func TestLexer_InvalidCharacter(t *testing.T) {
	checkTokens(t, "a + b", []Token{
		{Type: TokenIdent, Value: "a"},
		{Type: TokenError, Value: "+"},
	})
}

func TestLexer_NulCharacter(t *testing.T) {
	checkTokens(t, "SELECT * FROM df\x00 WHERE x > 5", []Token{
		{Type: TokenSelect, Value: "SELECT"},
		{Type: TokenIdent, Value: "*"},
		{Type: TokenFrom, Value: "FROM"},
		{Type: TokenIdent, Value: "df"},
		{Type: TokenError, Value: "unexpected NUL character"},
	})

	// Inside a string literal NUL is data
	checkTokens(t, "'a\x00b'", []Token{
		{Type: TokenString, Value: "a\x00b"},
		{Type: TokenEOF, Value: ""},
	})
}
