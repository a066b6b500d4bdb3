package classify

import (
	"strings"
	"unicode"

	"github.com/plati-tools/platiscout/internal/types"
)

// OfferClassifier decides whether a listing is a non-subscription offer
// (API keys, tokens, credentials for sale) that must never be ranked.
// The built-in implementation is a deny list; callers may inject their
// own.
type OfferClassifier interface {
	Excluded(fields ...string) bool
}

// denyTerms flags credential/API-key resale listings. Matching is by
// whole token, never substring, so "keyboard" survives while "key" and
// "api-key" do not. Includes the Russian equivalents the marketplace
// listings actually use.
var denyTerms = []string{
	"api", "apikey", "api-key", "key", "keys", "token", "tokens",
	"токен", "токены", "ключ", "ключи",
}

// DenyListClassifier is the default OfferClassifier
type DenyListClassifier struct {
	deny map[string]struct{}
}

// NewDenyListClassifier creates a classifier with the built-in deny
// list plus any extra terms.
func NewDenyListClassifier(extra ...string) *DenyListClassifier {
	deny := make(map[string]struct{}, len(denyTerms)+len(extra))
	for _, term := range denyTerms {
		for _, tok := range Tokenize(term) {
			deny[tok] = struct{}{}
		}
	}
	for _, term := range extra {
		for _, tok := range Tokenize(term) {
			deny[tok] = struct{}{}
		}
	}
	return &DenyListClassifier{deny: deny}
}

// Excluded reports whether any deny term appears as a whole token in
// any of the inspected text fields.
func (c *DenyListClassifier) Excluded(fields ...string) bool {
	for _, field := range fields {
		for _, tok := range Tokenize(field) {
			if _, hit := c.deny[tok]; hit {
				return true
			}
		}
	}
	return false
}

// LotFields collects the text fields inspected for a lot: its title
// plus every option group name/label and variant label.
func LotFields(lot *types.Lot) []string {
	fields := []string{lot.Title}
	for _, group := range lot.OptionGroups {
		fields = append(fields, group.Name, group.Label)
		for _, variant := range group.Variants {
			fields = append(fields, variant.Label)
		}
	}
	return fields
}

// Tokenize lower-cases text and splits it into whole tokens on any
// non-letter/non-digit rune. Runs connected by '-' or '_' additionally
// emit their joined form, so "api-key" yields "api", "key" and
// "apikey".
func Tokenize(text string) []string {
	lower := strings.ToLower(text)

	var tokens []string
	var word, joined strings.Builder
	connected := false

	flushWord := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	flushJoined := func() {
		if connected && joined.Len() > 0 {
			tokens = append(tokens, joined.String())
		}
		joined.Reset()
		connected = false
	}

	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
			joined.WriteRune(r)
		case r == '-' || r == '_':
			if word.Len() > 0 {
				connected = true
			}
			flushWord()
		default:
			flushWord()
			flushJoined()
		}
	}
	flushWord()
	flushJoined()

	return tokens
}

// TokenSet builds a membership set over the tokens of several fields
func TokenSet(fields ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range fields {
		for _, tok := range Tokenize(field) {
			set[tok] = struct{}{}
		}
	}
	return set
}
