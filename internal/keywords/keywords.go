// Package keywords turns free text into a normalized set of skill-like terms.
package keywords

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Set is an unordered collection of normalized keywords.
type Set map[string]struct{}

func (s Set) Has(kw string) bool {
	_, ok := s[kw]
	return ok
}

func (s Set) Add(kw string) {
	s[kw] = struct{}{}
}

// Sorted returns the keywords in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for kw := range s {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Intersection returns the keywords present in both sets, sorted.
func Intersection(a, b Set) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make([]string, 0, len(a))
	for kw := range a {
		if b.Has(kw) {
			out = append(out, kw)
		}
	}
	sort.Strings(out)
	return out
}

// Difference returns the keywords of a that are absent from b, sorted.
func Difference(a, b Set) []string {
	out := make([]string, 0)
	for kw := range a {
		if !b.Has(kw) {
			out = append(out, kw)
		}
	}
	sort.Strings(out)
	return out
}

// Extractor keeps nouns, proper nouns and noun compounds from tagged text.
// Terms from the technology lexicon are kept whatever their tag.
type Extractor struct {
	stopwords map[string]bool
	exclude   map[string]bool
	lexicon   map[string]bool
	compounds bool
}

type Option func(*Extractor)

// WithExclusions drops additional terms from the output.
func WithExclusions(terms ...string) Option {
	return func(e *Extractor) {
		for _, t := range terms {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				e.exclude[t] = true
			}
		}
	}
}

// WithLexicon adds terms that are always kept when they appear in the text.
func WithLexicon(terms ...string) Option {
	return func(e *Extractor) {
		for _, t := range terms {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				e.lexicon[t] = true
			}
		}
	}
}

// WithoutCompounds disables two-word noun phrases such as "machine learning".
func WithoutCompounds() Option {
	return func(e *Extractor) { e.compounds = false }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		stopwords: toSet(stopwords),
		exclude:   toSet(noise),
		lexicon:   toSet(techLexicon),
		compounds: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the keyword set of text. Blank input yields an empty set.
func (e *Extractor) Extract(text string) Set {
	kw := make(Set)
	if strings.TrimSpace(text) == "" {
		return kw
	}

	e.addLexiconTerms(kw, text)

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		// Tagging failed: keep every plain token that survives the filters.
		for _, w := range words(text) {
			if e.keep(w) {
				kw.Add(w)
			}
		}
		return kw
	}

	var prev string
	for _, tok := range doc.Tokens() {
		term := normalize(tok.Text)
		if !e.keep(term) {
			prev = ""
			continue
		}

		switch {
		case isNoun(tok.Tag):
			kw.Add(term)
			if e.compounds && prev != "" {
				kw.Add(prev + " " + term)
			}
			prev = term
		case isAdjective(tok.Tag):
			prev = term
		default:
			prev = ""
		}
	}

	return kw
}

// addLexiconTerms scans raw words so that skills the tagger splits or
// mislabels ("c++", "node.js", "Go") still make it into the set.
func (e *Extractor) addLexiconTerms(kw Set, text string) {
	for _, w := range words(text) {
		if e.lexicon[w] && !e.exclude[w] {
			kw.Add(w)
		}
	}
}

func (e *Extractor) keep(term string) bool {
	if len([]rune(term)) < 2 {
		return false
	}
	if e.stopwords[term] || e.exclude[term] {
		return false
	}
	return strings.IndexFunc(term, unicode.IsLetter) >= 0
}

func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isAdjective(tag string) bool {
	return strings.HasPrefix(tag, "JJ")
}

// normalize lower-cases a token and trims surrounding punctuation, keeping the
// characters that are part of technology names.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

// words splits text the way skill names are written: letters, digits and the
// symbols + # . stay inside a word.
func words(text string) []string {
	var (
		out  []string
		word strings.Builder
	)
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if w != "" {
			out = append(out, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
