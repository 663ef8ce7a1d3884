package posting

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// QuotaPolicy splits a request's total quota across the configured sources.
// The returned slice is index-aligned with sources and sums to total.
type QuotaPolicy interface {
	Allocate(total int, sources []SourceConfig) []int
}

// EqualSplit divides the quota evenly; earlier sources get the remainder
type EqualSplit struct{}

func (EqualSplit) Allocate(total int, sources []SourceConfig) []int {
	out := make([]int, len(sources))
	if total <= 0 || len(sources) == 0 {
		return out
	}
	base, rem := total/len(sources), total%len(sources)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// WeightedSplit divides the quota by SourceConfig.Weight using largest remainders.
// Sources without a positive finite weight get nothing unless no source has one.
type WeightedSplit struct{}

func (WeightedSplit) Allocate(total int, sources []SourceConfig) []int {
	out := make([]int, len(sources))
	if total <= 0 || len(sources) == 0 {
		return out
	}

	var sum float64
	for _, s := range sources {
		if usableWeight(s.Weight) {
			sum += s.Weight
		}
	}
	if sum == 0 {
		return EqualSplit{}.Allocate(total, sources)
	}

	type frac struct {
		idx  int
		frac float64
	}
	fracs := make([]frac, 0, len(sources))
	assigned := 0
	for i, s := range sources {
		if !usableWeight(s.Weight) {
			continue
		}
		share := float64(total) * (s.Weight / sum)
		whole := math.Floor(share + 1e-9)
		out[i] = int(whole)
		assigned += out[i]
		fracs = append(fracs, frac{idx: i, frac: share - whole})
	}

	sort.SliceStable(fracs, func(a, b int) bool { return fracs[a].frac > fracs[b].frac })
	for i := 0; assigned < total && len(fracs) > 0; i++ {
		out[fracs[i%len(fracs)].idx]++
		assigned++
	}
	return out
}

// usableWeight rejects NaN and infinities along with non-positive weights
func usableWeight(w float64) bool {
	return w > 0 && !math.IsInf(w, 0)
}

// ParseQuotaPolicy resolves "equal" or "weighted"
func ParseQuotaPolicy(name string) (QuotaPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "equal":
		return EqualSplit{}, nil
	case "weighted", "priority":
		return WeightedSplit{}, nil
	default:
		return nil, fmt.Errorf("unknown quota policy %q", name)
	}
}
