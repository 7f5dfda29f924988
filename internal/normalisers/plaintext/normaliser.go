// Package plaintext normalises extracted document text before chunking.
package plaintext

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normaliser prepares already-decoded plain text for chunking.
// Binary-format extraction happens upstream; this only cleans text.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise collapses runs of whitespace (including newlines) into
// single spaces and trims the result.
func (n *Normaliser) Normalise(text string) string {
	return Normalise(text)
}

// Normalise is the package-level form of Normaliser.Normalise.
func Normalise(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
