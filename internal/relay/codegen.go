package relay

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// CodeLength is the length of generated room codes.
	CodeLength = 6

	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeGenerator returns a new candidate room code on every call.
type CodeGenerator func() string

// NewCodeGenerator returns a generator of CodeLength-character uppercase
// alphanumeric codes.
func NewCodeGenerator() (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(codeAlphabet, CodeLength)
	if err != nil {
		return nil, fmt.Errorf("relay: room code generator: %w", err)
	}
	return CodeGenerator(gen), nil
}

// NormalizeCode trims and uppercases a client supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code has the shape of a generated room code
// after normalization.
func IsValidCode(code string) bool {
	code = NormalizeCode(code)
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}

func newUserID() string {
	return "user-" + uuid.NewString()
}
