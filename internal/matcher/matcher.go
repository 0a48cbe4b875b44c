// Package matcher compares display names and scores how likely they refer
// to the same person. Matching is deterministic and pure: a four-stage
// cascade from byte equality down to token-set overlap, each stage
// returning immediately on a qualifying result.
package matcher

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Method tags which cascade stage produced a match result.
type Method string

const (
	// MethodExact is a byte-equal match.
	MethodExact Method = "exact"
	// MethodNormalized is equality after case folding, punctuation
	// stripping and whitespace collapsing.
	MethodNormalized Method = "normalized"
	// MethodSimilarity is a normalized edit-distance similarity match on
	// the normalized strings.
	MethodSimilarity Method = "similarity"
	// MethodTokenSet is a Jaccard match over whitespace-delimited token
	// sets, which handles reordered names ("Smith, John" vs "John Smith").
	MethodTokenSet Method = "token_set"
	// MethodNone means no stage qualified.
	MethodNone Method = "none"
)

const (
	similarityCutoff = 0.85
	tokenSetCutoff   = 0.80

	// tokenSetDiscount reflects that token overlap is weaker evidence
	// than direct string similarity.
	tokenSetDiscount = 0.95
)

// Result carries the outcome of a name comparison. Confidence is 0 when no
// stage qualified; Score then still carries the best raw coefficient for
// diagnostics.
type Result struct {
	Method     Method
	Score      float64
	Confidence float64
}

// Match compares two display names. Empty or missing input on either side
// always yields confidence 0.
func Match(nameA, nameB string) Result {
	if nameA == "" || nameB == "" {
		return Result{Method: MethodNone}
	}

	// stage 1: exact
	if nameA == nameB {
		return Result{Method: MethodExact, Score: 1.0, Confidence: 1.0}
	}

	normA := Normalize(nameA)
	normB := Normalize(nameB)

	if normA == "" || normB == "" {
		return Result{Method: MethodNone}
	}

	// stage 2: normalized equality
	if normA == normB {
		return Result{Method: MethodNormalized, Score: 0.98, Confidence: 0.98}
	}

	// stage 3: string similarity on the normalized forms
	similarity := strutil.Similarity(normA, normB, metrics.NewLevenshtein())
	if similarity >= similarityCutoff {
		return Result{Method: MethodSimilarity, Score: similarity, Confidence: similarity}
	}

	// stage 4: token-set overlap
	jaccard := tokenSetJaccard(normA, normB)
	if jaccard >= tokenSetCutoff {
		return Result{Method: MethodTokenSet, Score: jaccard, Confidence: jaccard * tokenSetDiscount}
	}

	return Result{Method: MethodNone, Score: max(similarity, jaccard)}
}

// Normalize case-folds a name, strips punctuation and collapses whitespace.
func Normalize(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSetJaccard computes intersection-over-union of the whitespace
// delimited token sets of two normalized names.
func tokenSetJaccard(normA, normB string) float64 {
	setA := tokenSet(normA)
	setB := tokenSet(normB)

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var intersection int

	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})

	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}

	return set
}
