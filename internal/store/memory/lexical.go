package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/parley-ai/recall/internal/store"
)

var errClosed = errors.New("store closed")

// invertedIndex maps terms to postings with per-fragment term counts.
// Guarded by the owning Store's mutex.
type invertedIndex struct {
	postings map[string]map[string]int // term -> fragment ID -> count
	lengths  map[string]int            // fragment ID -> token count
}

func newInvertedIndex() *invertedIndex {
	return &invertedIndex{
		postings: make(map[string]map[string]int),
		lengths:  make(map[string]int),
	}
}

func (idx *invertedIndex) add(id, text string) {
	tokens := tokenize(text)
	idx.lengths[id] = len(tokens)
	for _, tok := range tokens {
		m, ok := idx.postings[tok]
		if !ok {
			m = make(map[string]int)
			idx.postings[tok] = m
		}
		m[id]++
	}
}

func (idx *invertedIndex) remove(id, text string) {
	for _, tok := range tokenize(text) {
		if m, ok := idx.postings[tok]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(idx.postings, tok)
			}
		}
	}
	delete(idx.lengths, id)
}

// LexicalQuery scores fragments by term frequency and query coverage:
// score = (matched terms / query terms) * sum of per-term frequency ratios.
// Both factors are in [0, 1], so the score is too.
func (s *Store) LexicalQuery(ctx context.Context, q *store.LexicalQuery) ([]store.Hit, error) {
	terms := uniqueTerms(tokenize(q.Text))
	if len(terms) == 0 || q.Limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.Transient(store.OpLexicalQuery, errClosed)
	}

	matched := make(map[string]int)   // fragment ID -> matched term count
	tfSum := make(map[string]float64) // fragment ID -> sum of tf ratios
	for _, term := range terms {
		// Cooperative cancellation at each posting-list boundary.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for id, count := range s.lexical.postings[term] {
			matched[id]++
			if l := s.lexical.lengths[id]; l > 0 {
				tfSum[id] += float64(count) / float64(l)
			}
		}
	}

	hits := make([]store.Hit, 0, len(matched))
	for id, m := range matched {
		f, ok := s.fragments[id]
		if !ok {
			continue
		}
		if q.MeetingID != "" && f.MeetingID != q.MeetingID {
			continue
		}
		coverage := float64(m) / float64(len(terms))
		hits = append(hits, store.Hit{Fragment: f, Score: coverage * tfSum[id]})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Fragment.SequenceIndex < hits[j].Fragment.SequenceIndex
	})
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return hits, nil
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func uniqueTerms(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0]
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
