// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"regexp"
	"strings"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeTitle IdentifierType = iota
	TypeArxiv
	TypeDOI
	TypeS2
	TypeOpenAlex
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	case TypeS2:
		return "s2"
	case TypeOpenAlex:
		return "openalex"
	default:
		return "title"
	}
}

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// s2Pattern matches 40-character Semantic Scholar paper hashes.
var s2Pattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// openAlexPattern matches OpenAlex work IDs: "W2741809807".
var openAlexPattern = regexp.MustCompile(`^W\d+$`)

// Classify determines the identifier type and returns the normalized form.
// For arXiv, it strips the optional "arXiv:" prefix and lowercases nothing
// else. DOIs lose a leading resolver URL. Anything unrecognized is treated
// as a title query.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)
	identifier = strings.TrimPrefix(identifier, "https://doi.org/")
	identifier = strings.TrimPrefix(identifier, "https://openalex.org/")

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}
	if doiPattern.MatchString(identifier) {
		return TypeDOI, identifier
	}
	if s2Pattern.MatchString(identifier) {
		return TypeS2, identifier
	}
	if openAlexPattern.MatchString(identifier) {
		return TypeOpenAlex, identifier
	}
	return TypeTitle, identifier
}

// Normalize returns the canonical node-identifier form used for
// de-duplication across reference and citer lists: the classified,
// normalized identifier, lowercased for DOI (DOIs are case-insensitive).
func Normalize(identifier string) string {
	t, norm := Classify(identifier)
	if t == TypeDOI {
		return strings.ToLower(norm)
	}
	return norm
}
