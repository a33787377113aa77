package lexer

import (
	"testing"

	"github.com/cobalt-lang/cobalt/token"
)

// kindAndLexeme is the part of a token the lexer tests assert on; positions
// are covered separately.
type kindAndLexeme struct {
	tokenType token.TokenType
	lexeme    string
}

func scanKinds(t *testing.T, input string) []kindAndLexeme {
	t.Helper()
	scanner := New(input)
	tokens, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	got := make([]kindAndLexeme, 0, len(tokens))
	for _, tok := range tokens {
		got = append(got, kindAndLexeme{tok.TokenType, tok.Lexeme})
	}
	return got
}

func assertKinds(t *testing.T, got []kindAndLexeme, want []kindAndLexeme) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count - got: %d (%v), want: %d (%v)", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token at index %d - got: %v, want: %v", i, got[i], want[i])
		}
	}
}

func TestOperatorsSuccess(t *testing.T) {
	got := scanKinds(t, "==/=*+>-<!=<=>=!%:")
	want := []kindAndLexeme{
		{token.EQUAL_EQUAL, "=="},
		{token.DIV_ASSIGN, "/="},
		{token.MULT, "*"},
		{token.ADD, "+"},
		{token.LARGER, ">"},
		{token.SUB, "-"},
		{token.LESS, "<"},
		{token.NOT_EQUAL, "!="},
		{token.LESS_EQUAL, "<="},
		{token.LARGER_EQUAL, ">="},
		{token.BANG, "!"},
		{token.MOD, "%"},
		{token.COLON, ":"},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestCompoundAssignOperators(t *testing.T) {
	got := scanKinds(t, "+= -= *= /= %= =")
	want := []kindAndLexeme{
		{token.ADD_ASSIGN, "+="},
		{token.SUB_ASSIGN, "-="},
		{token.MULT_ASSIGN, "*="},
		{token.DIV_ASSIGN, "/="},
		{token.MOD_ASSIGN, "%="},
		{token.ASSIGN, "="},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestLogicalOperators(t *testing.T) {
	got := scanKinds(t, "a && b || !c")
	want := []kindAndLexeme{
		{token.IDENTIFIER, "a"},
		{token.AND, "&&"},
		{token.IDENTIFIER, "b"},
		{token.OR, "||"},
		{token.BANG, "!"},
		{token.IDENTIFIER, "c"},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	got := scanKinds(t, "let x = 974 const y_2 fn return if else true false lettuce")
	want := []kindAndLexeme{
		{token.LET, "let"},
		{token.IDENTIFIER, "x"},
		{token.ASSIGN, "="},
		{token.INT, "974"},
		{token.CONST, "const"},
		{token.IDENTIFIER, "y_2"},
		{token.FUNC, "fn"},
		{token.RETURN, "return"},
		{token.IF, "if"},
		{token.ELSE, "else"},
		{token.TRUE, "true"},
		{token.FALSE, "false"},
		{token.IDENTIFIER, "lettuce"},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestNumbers(t *testing.T) {
	got := scanKinds(t, "0 974 26 1000000")
	want := []kindAndLexeme{
		{token.INT, "0"},
		{token.INT, "974"},
		{token.INT, "26"},
		{token.INT, "1000000"},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestPunctuation(t *testing.T) {
	got := scanKinds(t, "({})")
	want := []kindAndLexeme{
		{token.LPA, "("},
		{token.LCUR, "{"},
		{token.RCUR, "}"},
		{token.RPA, ")"},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestComments(t *testing.T) {
	got := scanKinds(t, "let x = 1 # trailing comment\n# whole line comment\nx")
	want := []kindAndLexeme{
		{token.LET, "let"},
		{token.IDENTIFIER, "x"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.IDENTIFIER, "x"},
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestEmptyInput(t *testing.T) {
	got := scanKinds(t, "")
	want := []kindAndLexeme{
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestWhitespaceOnly(t *testing.T) {
	got := scanKinds(t, " \t\r\n \n ")
	want := []kindAndLexeme{
		{token.EOF, "EOF"},
	}
	assertKinds(t, got, want)
}

func TestLastTokenIsAlwaysEOF(t *testing.T) {
	inputs := []string{"", "1", "let x = 1", "a && b", "# only a comment"}
	for _, input := range inputs {
		got := scanKinds(t, input)
		if got[len(got)-1].tokenType != token.EOF {
			t.Errorf("input %q - last token is %v, want EOF", input, got[len(got)-1])
		}
	}
}

func TestScanIsDeterministic(t *testing.T) {
	input := "let total = (974 + 26) * 2 # comment"
	first := scanKinds(t, input)
	second := scanKinds(t, input)
	assertKinds(t, first, second)
}

func TestSolitaryAmpersandFails(t *testing.T) {
	scanner := New("a & b")
	_, err := scanner.Scan()
	if err == nil {
		t.Fatalf("Scan() should fail on a solitary '&'")
	}
	if _, ok := err.(LexError); !ok {
		t.Errorf("Scan() error type - got: %T, want: LexError", err)
	}
}

func TestSolitaryPipeFails(t *testing.T) {
	scanner := New("a | b")
	_, err := scanner.Scan()
	if err == nil {
		t.Fatalf("Scan() should fail on a solitary '|'")
	}
	if _, ok := err.(LexError); !ok {
		t.Errorf("Scan() error type - got: %T, want: LexError", err)
	}
}

func TestUnknownCharacterFails(t *testing.T) {
	tests := []string{"let x = 1 @", "a $ b", "?", "\"strings are not supported\""}
	for _, input := range tests {
		scanner := New(input)
		_, err := scanner.Scan()
		if err == nil {
			t.Errorf("Scan(%q) should fail on an unknown character", input)
		}
	}
}

func TestLineTracking(t *testing.T) {
	scanner := New("let a = 1\nlet b = 2")
	tokens, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}

	// the second `let` starts on line 1 (0-based lines)
	secondLet := tokens[4]
	if secondLet.TokenType != token.LET {
		t.Fatalf("token at index 4 - got: %v, want LET", secondLet)
	}
	if secondLet.Line != 1 {
		t.Errorf("second let line - got: %d, want: 1", secondLet.Line)
	}
}
