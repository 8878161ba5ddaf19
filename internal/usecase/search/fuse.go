package search

import (
	"sort"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/request"
	"github.com/parley-ai/recall/internal/domain/search/result"
	"github.com/parley-ai/recall/internal/store"
)

// fuseWeighted merges lexical and ANN hits into a single ranking:
// combined = lexical*w.Lexical + semantic*w.Semantic. A fragment present in
// only one set keeps the missing score at 0 but stays in the union, so high
// semantic similarity surfaces even with zero term overlap. Ties break
// on ascending sequence index so pagination is reproducible.
func fuseWeighted(lexical, semantic []store.Hit, w request.Weights, limit int) []result.Result {
	type scored struct {
		frag     domain.Fragment
		lexScore float64
		semScore float64
	}

	merged := make(map[string]*scored, len(lexical)+len(semantic))

	for _, h := range lexical {
		merged[h.Fragment.ID] = &scored{frag: h.Fragment, lexScore: h.Score}
	}
	for _, h := range semantic {
		if existing, ok := merged[h.Fragment.ID]; ok {
			existing.semScore = h.Score
		} else {
			merged[h.Fragment.ID] = &scored{frag: h.Fragment, semScore: h.Score}
		}
	}

	results := make([]result.Result, 0, len(merged))
	for _, sc := range merged {
		combined := sc.lexScore*w.Lexical + sc.semScore*w.Semantic
		results = append(results, result.New(
			sc.frag.ID, sc.frag.MeetingID, sc.frag.SequenceIndex,
			sc.frag.StartTime, sc.frag.EndTime, sc.frag.SpeakerRef, sc.frag.Text,
			sc.lexScore, sc.semScore, combined,
		))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore() != results[j].CombinedScore() {
			return results[i].CombinedScore() > results[j].CombinedScore()
		}
		return results[i].SequenceIndex() < results[j].SequenceIndex()
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
