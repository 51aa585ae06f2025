package internal

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"
)

func makePool(prefix string, n int) Pool {
	pool := make(Pool, n)
	for i := range pool {
		pool[i] = Record{ID: fmt.Sprintf("%s%d", prefix, i+1), Name: fmt.Sprintf("%s name %d", prefix, i+1), Detail: "d"}
	}
	return pool
}

func seededSampler(seed uint64) *Sampler {
	return NewSampler(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func assertUnique(t *testing.T, pool Pool) {
	t.Helper()
	seen := map[string]bool{}
	for _, r := range pool {
		if seen[r.ID] {
			t.Fatalf("duplicate id %q in %v", r.ID, pool.IDs())
		}
		seen[r.ID] = true
	}
}

func TestSampler_Sample(t *testing.T) {
	pool := makePool("t", 10)
	tests := []struct {
		count int
		want  int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{5, 5},
		{10, 10},
		{25, 10},
	}
	s := seededSampler(1)
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.count), func(t *testing.T) {
			got := s.Sample(pool, tt.count)
			if len(got) != tt.want {
				t.Fatalf("Sample(%d) returned %d records, want %d", tt.count, len(got), tt.want)
			}
			assertUnique(t, got)
		})
	}
}

func TestSampler_SampleDoesNotMutateInput(t *testing.T) {
	pool := makePool("t", 10)
	before := append(Pool(nil), pool...)
	seededSampler(2).Sample(pool, 5)
	if !reflect.DeepEqual(pool, before) {
		t.Error("Sample() reordered the input pool")
	}
}

func TestSampler_SampleCoverage(t *testing.T) {
	pool := makePool("t", 10)
	s := NewSampler(nil)
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		got := s.Sample(pool, 5)
		if len(got) > 5 {
			t.Fatalf("sample %d has %d records", i, len(got))
		}
		assertUnique(t, got)
		for _, r := range got {
			seen[r.ID] = true
		}
	}
	if len(seen) != len(pool) {
		t.Errorf("only %d of %d records ever sampled", len(seen), len(pool))
	}
}

func TestSampler_SampleEmptyPool(t *testing.T) {
	if got := NewSampler(nil).Sample(nil, 3); len(got) != 0 {
		t.Errorf("Sample(nil, 3) = %v", got)
	}
}

func countOrigins(pool Pool) map[Origin]int {
	counts := map[Origin]int{}
	for _, r := range pool {
		counts[r.Origin]++
	}
	return counts
}

func TestSampler_SampleMixed(t *testing.T) {
	primary := makePool("p", 10)
	secondary := makePool("s", 4)

	tests := []struct {
		name         string
		primary      Pool
		secondary    Pool
		count        int
		wantLen      int
		wantDefault  int // -1 means at least one
		wantPersonal int // -1 means at least one
	}{
		{"count one never uses secondary", primary, secondary, 1, 1, 1, 0},
		{"count two takes one of each", primary, secondary, 2, 2, 1, 1},
		{"count three", primary, secondary, 3, 3, -1, -1},
		{"count larger than union", primary, secondary, 50, 14, 10, 4},
		{"count zero", primary, secondary, 0, 0, 0, 0},
		{"empty secondary", primary, nil, 4, 4, 4, 0},
		{"empty primary", nil, secondary, 3, 3, 0, 3},
		{"both empty", nil, nil, 3, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededSampler(7)
			for run := 0; run < 200; run++ {
				got := s.SampleMixed(tt.primary, tt.secondary, tt.count)
				if len(got) != tt.wantLen {
					t.Fatalf("SampleMixed() returned %d records, want %d", len(got), tt.wantLen)
				}
				assertUnique(t, got)
				counts := countOrigins(got)
				checkCount(t, "default", counts[OriginDefault], tt.wantDefault)
				checkCount(t, "personal", counts[OriginPersonal], tt.wantPersonal)
				for _, r := range got {
					if r.Origin == OriginDefault && !tt.primary.Contains(r.ID) {
						t.Fatalf("%s tagged default but not in primary", r.ID)
					}
					if r.Origin == OriginPersonal && !tt.secondary.Contains(r.ID) {
						t.Fatalf("%s tagged personal but not in secondary", r.ID)
					}
				}
			}
		})
	}
}

func checkCount(t *testing.T, label string, got, want int) {
	t.Helper()
	if want < 0 {
		if got < 1 {
			t.Fatalf("%s count = %d, want at least 1", label, got)
		}
		return
	}
	if got != want {
		t.Fatalf("%s count = %d, want %d", label, got, want)
	}
}

func TestSampler_SampleMixedEmptySecondaryMatchesSample(t *testing.T) {
	primary := makePool("p", 10)
	for _, count := range []int{1, 3, 10, 12} {
		a := seededSampler(42).SampleMixed(primary, nil, count)
		b := seededSampler(42).Sample(primary, count)
		if len(a) != len(b) {
			t.Fatalf("count %d: lengths differ %d vs %d", count, len(a), len(b))
		}
		for i := range a {
			if a[i].ID != b[i].ID {
				t.Errorf("count %d: position %d differs: %s vs %s", count, i, a[i].ID, b[i].ID)
			}
		}
	}
}

func TestSampler_SampleMixedSharedIDs(t *testing.T) {
	primary := Pool{{ID: "1", Name: "a", Detail: "a"}, {ID: "2", Name: "b", Detail: "b"}}
	secondary := Pool{{ID: "1", Name: "a2", Detail: "a2"}, {ID: "3", Name: "c", Detail: "c"}}
	s := seededSampler(3)
	for i := 0; i < 200; i++ {
		assertUnique(t, s.SampleMixed(primary, secondary, 2))
		assertUnique(t, s.SampleMixed(primary, secondary, 5))
	}

	tests := []struct {
		name      string
		secondary Pool
	}{
		{"only secondary record shares an id", Pool{{ID: "1", Name: "a2", Detail: "a2"}}},
		{"every secondary record shares an id", Pool{{ID: "1", Name: "a2", Detail: "a2"}, {ID: "2", Name: "b2", Detail: "b2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				got := s.SampleMixed(primary, tt.secondary, 2)
				if len(got) != 2 {
					t.Fatalf("SampleMixed(count=2) returned %d records: %v", len(got), got)
				}
				assertUnique(t, got)
				origins := map[Origin]int{}
				for _, r := range got {
					origins[r.Origin]++
				}
				if origins[OriginDefault] != 1 || origins[OriginPersonal] != 1 {
					t.Fatalf("origins = %v, want one default and one personal", origins)
				}
			}
		})
	}
}

func TestSampler_SampleMixedNoDistinctPair(t *testing.T) {
	primary := Pool{{ID: "1", Name: "a", Detail: "a"}}
	secondary := Pool{{ID: "1", Name: "a2", Detail: "a2"}}
	got := seededSampler(4).SampleMixed(primary, secondary, 2)
	if len(got) != 1 || got[0].Origin != OriginDefault {
		t.Errorf("SampleMixed() = %v, want the single primary record", got)
	}
}

func TestSampler_PickOne(t *testing.T) {
	pool := makePool("t", 3)
	s := seededSampler(5)

	exclude := map[string]struct{}{"t1": {}, "t2": {}}
	for i := 0; i < 20; i++ {
		got, ok := s.PickOne(pool, exclude)
		if !ok || got.ID != "t3" {
			t.Fatalf("PickOne() = %v, %v; want t3", got, ok)
		}
	}

	exclude["t3"] = struct{}{}
	if _, ok := s.PickOne(pool, exclude); ok {
		t.Error("PickOne() with everything excluded should report no candidate")
	}
}
