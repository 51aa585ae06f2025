package internal

import (
	"math/rand/v2"
)

// Sampler draws random records without replacement.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler. A nil rng gets a randomly seeded generator.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler{rng: rng}
}

// Sample returns min(count, len(pool)) distinct records in random order.
// The input pool is never modified.
func (s *Sampler) Sample(pool Pool, count int) Pool {
	if count <= 0 || len(pool) == 0 {
		return Pool{}
	}
	shuffled := s.shuffle(pool)
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// SampleMixed samples count records from primary and secondary, guaranteeing
// each non-empty pool is represented when count allows it:
//   - secondary empty: same as Sample(primary, count)
//   - count 1: one primary record, never a secondary one
//   - count 2: one from each pool
//   - count >= 3: one from each pool, the rest from the union of both
//
// Records are tagged default (primary) or personal (secondary).
func (s *Sampler) SampleMixed(primary, secondary Pool, count int) Pool {
	if len(secondary) == 0 {
		return tag(s.Sample(primary, count), OriginDefault)
	}
	if count <= 0 {
		return Pool{}
	}
	if len(primary) == 0 {
		return tag(s.Sample(secondary, count), OriginPersonal)
	}
	if count == 1 {
		return tag(s.Sample(primary, 1), OriginDefault)
	}

	reserved := s.reservePair(primary, secondary)
	if count == 2 {
		return s.shuffle(reserved)
	}

	used := reserved.IDs()
	var rest Pool
	rest = append(rest, tag(primary.Without(used), OriginDefault)...)
	restIDs := rest.IDs()
	for _, r := range secondary.Without(used) {
		if _, dup := restIDs[r.ID]; dup {
			continue
		}
		rest = append(rest, r.WithOrigin(OriginPersonal))
	}

	result := append(reserved, s.Sample(rest, count-2)...)
	return s.shuffle(result)
}

// reservePair picks one primary and one secondary record with distinct ids.
// The secondary record is drawn first, among those that still leave a
// primary record with another id. When no such pair exists only a primary
// record is returned.
func (s *Sampler) reservePair(primary, secondary Pool) Pool {
	primaryIDs := primary.IDs()
	var candidates Pool
	for _, r := range secondary {
		if _, shared := primaryIDs[r.ID]; !shared || len(primaryIDs) > 1 {
			candidates = append(candidates, r)
		}
	}
	second, ok := s.PickOne(candidates, nil)
	if !ok {
		return tag(s.Sample(primary, 1), OriginDefault)
	}
	first, _ := s.PickOne(primary, map[string]struct{}{second.ID: {}})
	return Pool{first.WithOrigin(OriginDefault), second.WithOrigin(OriginPersonal)}
}

// PickOne draws one record uniformly from pool minus the excluded ids.
func (s *Sampler) PickOne(pool Pool, exclude map[string]struct{}) (Record, bool) {
	candidates := pool.Without(exclude)
	if len(candidates) == 0 {
		return Record{}, false
	}
	return candidates[s.rng.IntN(len(candidates))], true
}

// IntN exposes the sampler's generator for single draws.
func (s *Sampler) IntN(n int) int {
	return s.rng.IntN(n)
}

func (s *Sampler) shuffle(pool Pool) Pool {
	out := make(Pool, len(pool))
	copy(out, pool)
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func tag(pool Pool, origin Origin) Pool {
	out := make(Pool, len(pool))
	for i, r := range pool {
		out[i] = r.WithOrigin(origin)
	}
	return out
}
