package redis

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/store"
)

func testConfig() Config {
	return Config{
		TextDimension:     4,
		VoiceDimension:    4,
		TextModelVersion:  "text-v1",
		VoiceModelVersion: "voice-v1",
	}
}

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, testConfig())
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_TransientError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, testConfig())
	if err := s.Ping(context.Background()); !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestUpsertFragment_RejectedBeforeWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl) // no EXPECT: rejected writes never reach the client

	s := NewStoreForTest(c, testConfig())
	f := &domain.Fragment{
		ID: "f1", MeetingID: "m1", StartTime: 0, EndTime: 1,
		Text: "hello", Embedding: []float32{1, 0}, ModelVersion: "text-v1",
	}

	t.Run("dimension", func(t *testing.T) {
		if err := s.UpsertFragment(context.Background(), f); !errors.Is(err, domain.ErrDimensionMismatch) {
			t.Fatalf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("model version", func(t *testing.T) {
		g := *f
		g.Embedding = []float32{1, 0, 0, 0}
		g.ModelVersion = "text-v2"
		if err := s.UpsertFragment(context.Background(), &g); !errors.Is(err, domain.ErrModelVersionMismatch) {
			t.Fatalf("expected ErrModelVersionMismatch, got %v", err)
		}
	})
}

func TestGetFragment_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "recall:frag:missing")).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c, testConfig())
	if _, err := s.GetFragment(context.Background(), "missing"); !errors.Is(err, domain.ErrFragmentNotFound) {
		t.Fatalf("expected ErrFragmentNotFound, got %v", err)
	}
}

func TestANNQuery_VersionMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c, testConfig())
	_, err := s.ANNQuery(context.Background(), &store.ANNQuery{
		Embedding:    []float32{1, 0, 0, 0},
		ModelVersion: "text-v9",
		Limit:        10,
	})
	if !errors.Is(err, domain.ErrModelVersionMismatch) {
		t.Fatalf("expected ErrModelVersionMismatch, got %v", err)
	}
}

func TestFragmentCodec_RoundTrip(t *testing.T) {
	f := domain.Fragment{
		ID:            "f1",
		MeetingID:     "m1",
		SequenceIndex: 7,
		StartTime:     12.5,
		EndTime:       19.25,
		SpeakerRef:    "spk-1",
		Text:          "budget review",
		Embedding:     []float32{0.1, -0.5, 0.9, 1},
		ModelVersion:  "text-v1",
	}

	got, err := fragmentFromFields(f.ID, fragmentFields(&f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MeetingID != f.MeetingID || got.SequenceIndex != f.SequenceIndex ||
		got.StartTime != f.StartTime || got.EndTime != f.EndTime ||
		got.SpeakerRef != f.SpeakerRef || got.Text != f.Text ||
		got.ModelVersion != f.ModelVersion {
		t.Errorf("round trip mismatch: %+v != %+v", got, f)
	}
	for i := range f.Embedding {
		if math.Abs(float64(got.Embedding[i]-f.Embedding[i])) > 1e-9 {
			t.Errorf("embedding[%d] = %f, want %f", i, got.Embedding[i], f.Embedding[i])
		}
	}
}

func TestParseSearchEntries(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		entries, err := parseSearchEntries(nil, 2)
		if err != nil || len(entries) != 0 {
			t.Fatalf("got %v, %v", entries, err)
		}
	})

	t.Run("with scores", func(t *testing.T) {
		raw := []rueidis.RedisMessage{
			mock.RedisInt64(1),
			mock.RedisString("recall:frag:f1"),
			mock.RedisString("2.5"),
			mock.RedisArray(mock.RedisString("text"), mock.RedisString("budget")),
		}
		entries, err := parseSearchEntries(raw, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].score != 2.5 || entries[0].fields["text"] != "budget" {
			t.Errorf("bad entry: %+v", entries[0])
		}
	})
}

func TestEscapeQuery(t *testing.T) {
	got := escapeQuery(`budget-review (q3)`)
	want := `budget\-review \(q3\)`
	if got != want {
		t.Errorf("escapeQuery = %q, want %q", got, want)
	}
}

func TestWaitForReady_BootstrapsIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE" && cmd[1] == "recall:frag:idx"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, testConfig())
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c, testConfig())
	if err := s.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("existing index should not be an error, got %v", err)
	}
}

func TestListVoiceprints_EmptyOwnerSpansAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("0"),
			mock.RedisArray(
				mock.RedisString("recall:spk:spk-1"),
				mock.RedisString("recall:spk:spk-2"),
			),
		)))
	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				fieldOwnerID:      mock.RedisString("ws-1"),
				fieldDisplayName:  mock.RedisString("Ana"),
				fieldRegistered:   mock.RedisString("true"),
				fieldSampleCount:  mock.RedisString("1"),
				fieldVoiceprint:   mock.RedisString(vectorToBytes([]float32{1, 0, 0, 0})),
				fieldModelVersion: mock.RedisString("voice-v1"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				fieldOwnerID:      mock.RedisString("ws-2"),
				fieldDisplayName:  mock.RedisString("Ben"),
				fieldRegistered:   mock.RedisString("true"),
				fieldSampleCount:  mock.RedisString("1"),
				fieldVoiceprint:   mock.RedisString(vectorToBytes([]float32{0, 1, 0, 0})),
				fieldModelVersion: mock.RedisString("voice-v1"),
			})),
		})

	s := NewStoreForTest(c, testConfig())
	got, err := s.ListVoiceprints(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both owners' speakers, got %v", got)
	}
	if got[0].OwnerID == got[1].OwnerID {
		t.Errorf("expected speakers from distinct owners, got %v", got)
	}
}

func TestANNQuery_CarriesLimitClause(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" {
				return false
			}
			for i := 0; i+2 < len(cmd); i++ {
				if cmd[i] == "LIMIT" && cmd[i+1] == "0" && cmd[i+2] == "60" {
					return true
				}
			}
			return false
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c, testConfig())
	hits, err := s.ANNQuery(context.Background(), &store.ANNQuery{
		Embedding:    []float32{1, 0, 0, 0},
		ModelVersion: "text-v1",
		Limit:        60,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hits)
	}
}
