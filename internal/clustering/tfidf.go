package clustering

import (
	"math"
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true, "your": true, "you": true, "this": true, "that": true,
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit. Single characters and common English stop words are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Vectorize embeds every text as an L2-normalised TF-IDF vector over the
// shared vocabulary. Term frequency is the raw count and
// idf(t) = ln((1+n)/(1+df(t))) + 1. Texts without tokens map to the zero
// vector. The vocabulary is indexed in first-seen order.
func Vectorize(texts []string) ([][]float64, []string) {
	index := make(map[string]int)
	var vocab []string
	docs := make([]map[int]float64, len(texts))
	df := make(map[int]int)

	for i, text := range texts {
		counts := make(map[int]float64)
		for _, tok := range Tokenize(text) {
			j, ok := index[tok]
			if !ok {
				j = len(vocab)
				index[tok] = j
				vocab = append(vocab, tok)
			}
			counts[j]++
		}
		for j := range counts {
			df[j]++
		}
		docs[i] = counts
	}

	n := float64(len(texts))
	idf := make([]float64, len(vocab))
	for j := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(df[j]))) + 1
	}

	vectors := make([][]float64, len(texts))
	for i, counts := range docs {
		v := make([]float64, len(vocab))
		for j, c := range counts {
			v[j] = c * idf[j]
		}
		// Summed over the dense slice so the norm is identical on every call.
		var norm float64
		for _, x := range v {
			norm += x * x
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range v {
				v[j] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors, vocab
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
