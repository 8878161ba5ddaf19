package search

import (
	"math"
	"testing"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/request"
	"github.com/parley-ai/recall/internal/store"
)

func hit(id string, seq int, score float64) store.Hit {
	return store.Hit{
		Fragment: domain.Fragment{
			ID: id, MeetingID: "m1", SequenceIndex: seq,
			StartTime: float64(seq), EndTime: float64(seq) + 1,
			Text: "fragment " + id,
		},
		Score: score,
	}
}

func TestFuseWeighted_UnionWithMissingScoreZero(t *testing.T) {
	lexical := []store.Hit{hit("a", 0, 0.8)}
	semantic := []store.Hit{hit("b", 1, 0.9)}

	got := fuseWeighted(lexical, semantic, request.DefaultWeights(), 10)
	if len(got) != 2 {
		t.Fatalf("fuseWeighted() returned %d results, want 2", len(got))
	}

	// b: 0*0.3 + 0.9*0.7 = 0.63; a: 0.8*0.3 + 0*0.7 = 0.24
	if got[0].FragmentID() != "b" || got[1].FragmentID() != "a" {
		t.Fatalf("order = [%s %s], want [b a]", got[0].FragmentID(), got[1].FragmentID())
	}
	if math.Abs(got[0].CombinedScore()-0.63) > 1e-9 {
		t.Errorf("combined(b) = %v, want 0.63", got[0].CombinedScore())
	}
	if got[1].LexicalScore() != 0.8 || got[1].SemanticScore() != 0 {
		t.Errorf("a scores = (%v, %v), want (0.8, 0)", got[1].LexicalScore(), got[1].SemanticScore())
	}
}

func TestFuseWeighted_OverlappingFragmentsSumBothSignals(t *testing.T) {
	lexical := []store.Hit{hit("a", 0, 0.5), hit("b", 1, 0.9)}
	semantic := []store.Hit{hit("a", 0, 0.9), hit("b", 1, 0.1)}

	got := fuseWeighted(lexical, semantic, request.DefaultWeights(), 10)
	if len(got) != 2 {
		t.Fatalf("fuseWeighted() returned %d results, want 2", len(got))
	}
	// a: 0.5*0.3 + 0.9*0.7 = 0.78; b: 0.9*0.3 + 0.1*0.7 = 0.34
	if got[0].FragmentID() != "a" {
		t.Fatalf("top result = %s, want a", got[0].FragmentID())
	}
	if math.Abs(got[0].CombinedScore()-0.78) > 1e-9 {
		t.Errorf("combined(a) = %v, want 0.78", got[0].CombinedScore())
	}
}

func TestFuseWeighted_PureSemanticWeights(t *testing.T) {
	lexical := []store.Hit{hit("a", 0, 1.0)}
	semantic := []store.Hit{hit("b", 1, 0.4)}

	w := request.Weights{Lexical: 0, Semantic: 1}
	got := fuseWeighted(lexical, semantic, w, 10)
	if got[0].FragmentID() != "b" {
		t.Fatalf("with semantic-only weights top = %s, want b", got[0].FragmentID())
	}
	if got[1].CombinedScore() != 0 {
		t.Errorf("combined(a) = %v, want 0 when lexical weight is 0", got[1].CombinedScore())
	}
}

func TestFuseWeighted_TieBreaksOnSequenceIndex(t *testing.T) {
	lexical := []store.Hit{hit("later", 7, 0.5), hit("earlier", 2, 0.5)}

	got := fuseWeighted(lexical, nil, request.DefaultWeights(), 10)
	if got[0].FragmentID() != "earlier" || got[1].FragmentID() != "later" {
		t.Fatalf("tie order = [%s %s], want [earlier later]",
			got[0].FragmentID(), got[1].FragmentID())
	}
}

func TestFuseWeighted_Deterministic(t *testing.T) {
	lexical := []store.Hit{hit("a", 0, 0.5), hit("b", 1, 0.5), hit("c", 2, 0.5)}
	semantic := []store.Hit{hit("c", 2, 0.5), hit("a", 0, 0.5), hit("d", 3, 0.5)}

	first := fuseWeighted(lexical, semantic, request.DefaultWeights(), 10)
	for n := 0; n < 20; n++ {
		again := fuseWeighted(lexical, semantic, request.DefaultWeights(), 10)
		for i := range first {
			if first[i].FragmentID() != again[i].FragmentID() {
				t.Fatalf("ranking not deterministic at position %d", i)
			}
		}
	}
}

func TestFuseWeighted_TruncatesToLimit(t *testing.T) {
	var lexical []store.Hit
	for i := 0; i < 10; i++ {
		lexical = append(lexical, hit(string(rune('a'+i)), i, float64(10-i)/10))
	}

	got := fuseWeighted(lexical, nil, request.DefaultWeights(), 3)
	if len(got) != 3 {
		t.Fatalf("fuseWeighted() returned %d results, want 3", len(got))
	}
	if got[0].FragmentID() != "a" {
		t.Errorf("top result = %s, want a", got[0].FragmentID())
	}
}
