package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/store"
)

// LexicalQuery runs a BM25 text search via FT.SEARCH. BM25 scores are
// unbounded, so they are normalized by the top score into [0, 1] to fuse
// with semantic similarity.
func (s *Store) LexicalQuery(ctx context.Context, q *store.LexicalQuery) ([]store.Hit, error) {
	if strings.TrimSpace(q.Text) == "" || q.Limit <= 0 {
		return nil, nil
	}

	textPart := fmt.Sprintf("@%s:(%s)", fieldText, escapeQuery(q.Text))
	queryStr := textPart
	if q.MeetingID != "" {
		queryStr = fmt.Sprintf("@%s:{%s} %s", fieldMeetingID, tagEscaper.Replace(q.MeetingID), textPart)
	}

	args := []string{
		s.fragIndex(), queryStr,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, store.Transient(store.OpLexicalQuery, err)
	}

	entries, err := parseSearchEntries(raw, 3)
	if err != nil {
		return nil, fmt.Errorf("parse bm25 result: %w", err)
	}
	return s.entriesToHits(entries, normalizeScores(entries))
}

// ANNQuery runs a KNN vector search via FT.SEARCH. The probe count maps to
// HNSW EF_RUNTIME: a larger dynamic candidate list raises recall and latency.
func (s *Store) ANNQuery(ctx context.Context, q *store.ANNQuery) ([]store.Hit, error) {
	if len(q.Embedding) == 0 || q.Limit <= 0 {
		return nil, nil
	}
	if len(q.Embedding) != s.cfg.TextDimension {
		return nil, domain.NewDimensionError(len(q.Embedding), s.cfg.TextDimension)
	}
	if q.ModelVersion != "" && q.ModelVersion != s.cfg.TextModelVersion {
		return nil, domain.NewVersionError(q.ModelVersion, s.cfg.TextModelVersion)
	}

	ef := q.Probes
	if ef <= 0 {
		ef = s.cfg.DefaultProbes
	}

	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB EF_RUNTIME %d]", q.Limit, fieldVector, ef)
	queryStr := "*=>" + knnPart
	if q.MeetingID != "" {
		queryStr = fmt.Sprintf("(@%s:{%s})=>%s", fieldMeetingID, tagEscaper.Replace(q.MeetingID), knnPart)
	}

	args := []string{
		s.fragIndex(), queryStr,
		"PARAMS", "2", "BLOB", vectorToBytes(q.Embedding),
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, store.Transient(store.OpANNQuery, err)
	}

	entries, err := parseSearchEntries(raw, 2)
	if err != nil {
		return nil, fmt.Errorf("parse knn result: %w", err)
	}

	hits := make([]store.Hit, 0, len(entries))
	for _, e := range entries {
		f, err := fragmentFromFields(s.fragIDFromKey(e.key), e.fields)
		if err != nil {
			continue
		}
		score := 0.0
		if distStr, ok := e.fields["__"+fieldVector+"_score"]; ok {
			if d, err := strconv.ParseFloat(distStr, 64); err == nil {
				score = max(0, 1.0-d) // cosine distance -> similarity, clamped to [0,1]
			}
		}
		hits = append(hits, store.Hit{Fragment: f, Score: score})
	}
	return hits, nil
}

type searchEntry struct {
	key    string
	score  float64
	fields map[string]string
}

// parseSearchEntries parses an FT.SEARCH RESP2 reply.
// stride 2: [total, key1, fields1, ...]; stride 3 (WITHSCORES):
// [total, key1, score1, fields1, ...].
func parseSearchEntries(raw []rueidis.RedisMessage, stride int) ([]searchEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	entries := make([]searchEntry, 0, total)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		entry := searchEntry{key: key}
		fieldsIdx := i + 1

		if stride == 3 {
			scoreStr, err := raw[i+1].ToString()
			if err != nil {
				continue
			}
			entry.score, err = strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				continue
			}
			fieldsIdx = i + 2
		}

		fields, err := raw[fieldsIdx].ToArray()
		if err != nil {
			continue
		}
		entry.fields = parseFieldPairs(fields)
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// normalizeScores maps raw BM25 scores into [0, 1] by the top score.
func normalizeScores(entries []searchEntry) float64 {
	var top float64
	for _, e := range entries {
		if e.score > top {
			top = e.score
		}
	}
	return top
}

func (s *Store) entriesToHits(entries []searchEntry, topScore float64) ([]store.Hit, error) {
	hits := make([]store.Hit, 0, len(entries))
	for _, e := range entries {
		f, err := fragmentFromFields(s.fragIDFromKey(e.key), e.fields)
		if err != nil {
			continue
		}
		score := e.score
		if topScore > 0 {
			score = e.score / topScore
		}
		hits = append(hits, store.Hit{Fragment: f, Score: score})
	}
	return hits, nil
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

var tagEscaper = strings.NewReplacer(
	` `, `\ `,
	`,`, `\,`,
	`.`, `\.`,
	`<`, `\<`,
	`>`, `\>`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`"`, `\"`,
	`'`, `\'`,
	`:`, `\:`,
	`;`, `\;`,
	`!`, `\!`,
	`@`, `\@`,
	`#`, `\#`,
	`$`, `\$`,
	`%`, `\%`,
	`^`, `\^`,
	`&`, `\&`,
	`*`, `\*`,
	`(`, `\(`,
	`)`, `\)`,
	`-`, `\-`,
	`+`, `\+`,
	`=`, `\=`,
	`~`, `\~`,
)
