package lexer

import (
	"github.com/cobalt-lang/cobalt/token"
)

const (
	COMMENT_CHAR = '#'
)

func isLetter(char rune) bool {
	return rune('a') <= char && char <= rune('z') || rune('A') <= char && char <= rune('Z') || char == rune('_')
}

func isNumber(char rune) bool {
	return rune('0') <= char && char <= rune('9')
}

func isAlphaNumeric(char rune) bool {
	return isLetter(char) || isNumber(char)
}

// Lexer represents a lexical scanner for processing input text into tokens.
// It maintains the current scanning state, including the position within the
// input, the current character, and metadata for line/column tracking.
// The Lexer also records tokens and errors encountered during scanning.
type Lexer struct {
	// rune slice of the input string being scanned.
	characters []rune

	// Total number of runes in the input.
	totalChars int

	// Stores the sequence of tokens produced during lexing.
	tokens []token.Token

	// The index of the character that was previously read
	position int

	// The current character being examined.
	currentChar rune

	// The index of the next position where the next character
	// will be read
	readPosition int

	// Tracks the number of lines processed (incremented on newline).
	lineCount int32

	// Tracks the 1-based column of the current character within the
	// current line. Gets reset on every new line.
	column int

	// The index of the first character of the current line.
	lineStart int

	// Stores any scanning errors that occur during lexing.
	errors []error
}

// Initializes and returns a new Lexer instance.
//
// Parameters:
//   - input: string
//     The source code as a string to be lexically analyzed.
//
// Returns:
//   - *Lexer: A pointer to a newly created Lexer instance.
func New(input string) *Lexer {
	lexer := &Lexer{
		characters: []rune(input),
	}
	lexer.totalChars = len(lexer.characters)
	lexer.readChar()
	return lexer
}

// Updates the `Lexer`'s reading position forward by one character.
//
// Behavior:
//   - Sets `position` to the current `readPosition`
//   - Increments `readPosition` by 1, so the lexer is ready to read the next
//     character on the following call.
//   - Updates the `column` to `readPosition` counted from the start of the
//     current line, keeping track of the character's position within the line.
func (lexer *Lexer) advance() {
	lexer.position = lexer.readPosition
	lexer.readPosition++
	lexer.column = lexer.readPosition - lexer.lineStart
}

// Determines if the lexer has finished scanning all the source code.
//
// Returns:
//   - bool: true if the lexer has finished scanning, false otherwise
func (lexer *Lexer) isFinished() bool {
	return lexer.readPosition >= lexer.totalChars
}

// Reads the character at the `Lexer`'s `readPosition`. If there
// are no more characters to parse, it sets the `Lexer`'s current
// character to null.
func (lexer *Lexer) readChar() {

	if lexer.isFinished() {
		lexer.currentChar = rune(0)
	} else {
		lexer.currentChar = lexer.characters[lexer.readPosition]
	}
	lexer.advance()
}

// Returns the character at the `Lexer`s `readPosition` without consuming
// the character.
//
// Returns:
//   - rune: The next character in the input stream.
//     If the lexer has reached the end of the input, it returns 0 (null)
func (lexer *Lexer) peek() rune {
	if lexer.isFinished() {
		return rune(0)
	}
	return lexer.characters[lexer.readPosition]
}

// handleComment processes a comment in the input stream.
//
// It consumes all characters up to the end of the line or end of input,
// while advancing the `Lexer`'s position. The newline itself is left to the
// whitespace skipper, which counts the line.
func (lexer *Lexer) handleComment() {
	for lexer.peek() != rune('\n') && !lexer.isFinished() {
		lexer.readChar()
	}
}

// handleNumber scans a maximal run of ASCII digits from the input and creates
// an INT token. The lexeme is preserved as a decimal string; converting it to
// an int64 is the parser's responsibility.
func (lexer *Lexer) handleNumber() {
	initPos := lexer.position
	for isNumber(lexer.peek()) {
		lexer.advance()
	}
	number := string(lexer.characters[initPos:lexer.readPosition])
	tok := token.CreateLiteralToken(token.INT, nil, number, lexer.lineCount, lexer.column)
	lexer.tokens = append(lexer.tokens, tok)
}

// handleIdentifier processes a user identifier or a
// language keyword in the source code.
func (lexer *Lexer) handleIdentifier() {

	initPos := lexer.position
	for isAlphaNumeric(lexer.peek()) {
		lexer.advance()
	}

	identifier := lexer.characters[initPos:lexer.readPosition]
	lexeme := token.Token{
		TokenType: token.IDENTIFIER,
		Lexeme:    string(identifier),
		Line:      lexer.lineCount,
		Column:    lexer.column,
	}

	if keywordType, exists := token.KeyWords[lexeme.Lexeme]; exists {
		lexeme.TokenType = keywordType
	}

	lexer.tokens = append(lexer.tokens, lexeme)
}

// Determines if the next character in the source code
// matches the `expected` character.
func (lexer *Lexer) isMatch(expected rune) bool {

	if lexer.isFinished() {
		return false
	}

	if lexer.characters[lexer.readPosition] == expected {
		lexer.readPosition++
		return true
	}
	return false
}

// isWhiteSpace determines whether a given rune represents whitespace in the
// input stream. In Cobalt, whitespace is considered to be the following
// characters:
//   - carriage return ('\r')
//   - tab ('\t')
//   - newline ('\n')
//   - ASCII space (' ')
//
// Parameters:
//   - char (rune): The character being evaluated.
//
// Returns:
//   - bool: true if the character is considered whitespace, otherwise false.
func (lexer *Lexer) isWhiteSpace(char rune) bool {

	if char == rune(' ') || char == rune('\r') || char == rune('\t') {
		return true
	}
	if char == rune('\n') {
		// increment line count and reset column back to zero
		lexer.lineCount++
		lexer.column = 0
		lexer.lineStart = lexer.readPosition
		return true
	}
	return false
}

// Skips all whitespaces in the input while advancing the `Lexer`'s position
func (lexer *Lexer) skipWhiteSpace() {
	for lexer.isWhiteSpace(lexer.currentChar) {
		lexer.readChar()
	}
}

// pushOperator appends the single-character token for `single`, or the
// compound token for `compound` when the next character is '='.
// Longest match wins.
func (lexer *Lexer) pushOperator(single token.TokenType, compound token.TokenType) {
	tok := token.CreateToken(single, lexer.lineCount, lexer.column)
	if lexer.isMatch(rune('=')) {
		tok = token.CreateToken(compound, lexer.lineCount, lexer.column)
	}
	lexer.tokens = append(lexer.tokens, tok)
}

// Processes the current character and creates a token if applicable.
//
// This method is responsible for identifying and creating tokens based on the
// current character in the input stream.
func (lexer *Lexer) createToken() {

	lexer.skipWhiteSpace()

	switch lexer.currentChar {
	case rune('('):
		tok := token.CreateToken(token.LPA, lexer.lineCount, lexer.column)
		lexer.tokens = append(lexer.tokens, tok)
	case rune(')'):
		tok := token.CreateToken(token.RPA, lexer.lineCount, lexer.column)
		lexer.tokens = append(lexer.tokens, tok)
	case rune('{'):
		tok := token.CreateToken(token.LCUR, lexer.lineCount, lexer.column)
		lexer.tokens = append(lexer.tokens, tok)
	case rune('}'):
		tok := token.CreateToken(token.RCUR, lexer.lineCount, lexer.column)
		lexer.tokens = append(lexer.tokens, tok)
	case rune(':'):
		tok := token.CreateToken(token.COLON, lexer.lineCount, lexer.column)
		lexer.tokens = append(lexer.tokens, tok)
	case rune('+'):
		lexer.pushOperator(token.ADD, token.ADD_ASSIGN)
	case rune('-'):
		lexer.pushOperator(token.SUB, token.SUB_ASSIGN)
	case rune('*'):
		lexer.pushOperator(token.MULT, token.MULT_ASSIGN)
	case rune('/'):
		lexer.pushOperator(token.DIV, token.DIV_ASSIGN)
	case rune('%'):
		lexer.pushOperator(token.MOD, token.MOD_ASSIGN)
	case rune('='):
		lexer.pushOperator(token.ASSIGN, token.EQUAL_EQUAL)
	case rune('!'):
		lexer.pushOperator(token.BANG, token.NOT_EQUAL)
	case rune('<'):
		lexer.pushOperator(token.LESS, token.LESS_EQUAL)
	case rune('>'):
		lexer.pushOperator(token.LARGER, token.LARGER_EQUAL)
	case rune('&'):
		if lexer.isMatch(rune('&')) {
			lexer.tokens = append(lexer.tokens, token.CreateToken(token.AND, lexer.lineCount, lexer.column))
		} else {
			err := CreateLexError(lexer.lineCount, lexer.column, "incomplete operator '&', did you mean '&&'?")
			lexer.errors = append(lexer.errors, err)
		}
	case rune('|'):
		if lexer.isMatch(rune('|')) {
			lexer.tokens = append(lexer.tokens, token.CreateToken(token.OR, lexer.lineCount, lexer.column))
		} else {
			err := CreateLexError(lexer.lineCount, lexer.column, "incomplete operator '|', did you mean '||'?")
			lexer.errors = append(lexer.errors, err)
		}
	case rune(COMMENT_CHAR):
		lexer.handleComment()
	default:
		if isLetter(lexer.currentChar) {
			lexer.handleIdentifier()
		} else if isNumber(lexer.currentChar) {
			lexer.handleNumber()
		} else if lexer.currentChar != rune(0) {
			msg := "unexpected character: '" + string(lexer.currentChar) + "'"
			err := CreateLexError(lexer.lineCount, lexer.column, msg)
			lexer.errors = append(lexer.errors, err)
		}
	}

	lexer.readChar()
}

// Scan performs lexical analysis on the input and returns a slice of tokens.
//
// This method is the main entry point for the lexical analysis process. It
// iterates through the input, tokenizing it and collecting all tokens until
// the end of the input is reached or an error occurs. Scanning stops at the
// first error.
//
// Returns:
//   - []token.Token: A slice containing all tokens found in the input.
//   - error: An error if any issues occurred during lexing, or nil if successful.
func (lexer *Lexer) Scan() ([]token.Token, error) {

	if lexer.totalChars > 1 {
		for lexer.currentChar != rune(0) {
			lexer.createToken()
			if len(lexer.errors) == 1 {
				return lexer.tokens, lexer.errors[0]
			}
		}
	} else {
		// special handling for inputs with a single character or empty inputs.
		lexer.createToken()
		if len(lexer.errors) == 1 {
			return lexer.tokens, lexer.errors[0]
		}
	}
	lexer.tokens = append(lexer.tokens, token.CreateToken(token.EOF, lexer.lineCount, lexer.column))
	return lexer.tokens, nil
}
