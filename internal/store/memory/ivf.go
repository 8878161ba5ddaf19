package memory

import (
	"context"
	"math"
	"sort"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/store"
)

// ivfIndex is an inverted-file ANN index: vector space is partitioned into
// clusters with online-updated centroids, and queries probe only the nearest
// few partitions. Guarded by the owning Store's mutex.
type ivfIndex struct {
	maxClusters int
	clusters    []*ivfCluster
	assignment  map[string]int // fragment ID -> cluster index
	vectors     map[string][]float32
}

type ivfCluster struct {
	centroid []float64
	count    int
	members  map[string]bool
}

func newIVFIndex(maxClusters int) *ivfIndex {
	return &ivfIndex{
		maxClusters: maxClusters,
		assignment:  make(map[string]int),
		vectors:     make(map[string][]float32),
	}
}

// add assigns the vector to its nearest cluster, seeding a new cluster while
// fewer than maxClusters exist. Centroids track the running mean of their
// members, so partitioning adapts as fragments stream in.
func (idx *ivfIndex) add(id string, vec []float32) {
	idx.vectors[id] = vec

	if len(idx.clusters) < idx.maxClusters {
		c := &ivfCluster{
			centroid: toFloat64(vec),
			count:    1,
			members:  map[string]bool{id: true},
		}
		idx.clusters = append(idx.clusters, c)
		idx.assignment[id] = len(idx.clusters) - 1
		return
	}

	best := idx.nearestCluster(vec)
	c := idx.clusters[best]
	c.members[id] = true
	c.count++
	// Running mean update. Removed members are not subtracted back out;
	// centroids drift but stay a valid partition seed.
	for i := range c.centroid {
		c.centroid[i] += (float64(vec[i]) - c.centroid[i]) / float64(c.count)
	}
	idx.assignment[id] = best
}

func (idx *ivfIndex) remove(id string) {
	if ci, ok := idx.assignment[id]; ok {
		delete(idx.clusters[ci].members, id)
		delete(idx.assignment, id)
	}
	delete(idx.vectors, id)
}

func (idx *ivfIndex) nearestCluster(vec []float32) int {
	best, bestSim := 0, -2.0
	for i, c := range idx.clusters {
		sim := centroidSimilarity(c.centroid, vec)
		if sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best
}

// probeOrder ranks cluster indexes by centroid similarity to the query.
func (idx *ivfIndex) probeOrder(vec []float32) []int {
	order := make([]int, len(idx.clusters))
	sims := make([]float64, len(idx.clusters))
	for i, c := range idx.clusters {
		order[i] = i
		sims[i] = centroidSimilarity(c.centroid, vec)
	}
	sort.Slice(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })
	return order
}

// ANNQuery probes the nearest clusters and returns the top-limit fragments by
// exact cosine similarity within the probed partitions. Raising the probe
// count monotonically increases recall and latency.
func (s *Store) ANNQuery(ctx context.Context, q *store.ANNQuery) ([]store.Hit, error) {
	if len(q.Embedding) == 0 || q.Limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.Transient(store.OpANNQuery, errClosed)
	}
	// TextDimension 0 means nothing has been written yet; the probe loop
	// below finds no clusters and returns empty.
	if s.cfg.TextDimension != 0 && len(q.Embedding) != s.cfg.TextDimension {
		return nil, domain.NewDimensionError(len(q.Embedding), s.cfg.TextDimension)
	}

	if q.ModelVersion != "" && s.textVersion != "" && q.ModelVersion != s.textVersion {
		return nil, domain.NewVersionError(q.ModelVersion, s.textVersion)
	}

	probes := q.Probes
	if probes <= 0 {
		probes = s.cfg.DefaultProbes
	}
	if probes > len(s.ann.clusters) {
		probes = len(s.ann.clusters)
	}

	var hits []store.Hit
	for _, ci := range s.ann.probeOrder(q.Embedding)[:probes] {
		// Cooperative cancellation at each partition boundary.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for id := range s.ann.clusters[ci].members {
			f, ok := s.fragments[id]
			if !ok {
				continue
			}
			if q.MeetingID != "" && f.MeetingID != q.MeetingID {
				continue
			}
			sim, err := domain.CosineSimilarity(q.Embedding, s.ann.vectors[id])
			if err != nil {
				return nil, err
			}
			hits = append(hits, store.Hit{Fragment: f, Score: sim})
		}
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

func centroidSimilarity(centroid []float64, vec []float32) float64 {
	var dot, na, nb float64
	for i := range centroid {
		dot += centroid[i] * float64(vec[i])
		na += centroid[i] * centroid[i]
		nb += float64(vec[i]) * float64(vec[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func toFloat64(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
