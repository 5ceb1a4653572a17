package retrieval

import (
	"sort"

	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
)

// fused is one candidate after normalization and weighting.
type fused struct {
	id       string
	content  string
	lexical  float64
	vector   float64
	combined float64
}

// fuseWeighted merges lexical and vector hits by id.
//
// Cosine similarities are rescaled to [0,1] via (s+1)/2. A candidate missing from one
// signal gets 0 for it. Each signal is then min-max normalized over the union, so the
// best candidate of a signal scores 1. combined = tw*lexical + vw*vector.
// The result is sorted by combined desc, then vector desc, then id asc.
func fuseWeighted(lex, vec []result.Hit, tw, vw float64) []fused {
	byID := make(map[string]*fused, len(lex)+len(vec))
	order := make([]*fused, 0, len(lex)+len(vec))
	get := func(h result.Hit) *fused {
		if f, ok := byID[h.ID]; ok {
			return f
		}
		f := &fused{id: h.ID, content: h.Content}
		byID[h.ID] = f
		order = append(order, f)
		return f
	}

	for _, h := range lex {
		get(h).lexical = h.Score
	}
	for _, h := range vec {
		get(h).vector = (h.Score + 1) / 2
	}

	minMax(order, func(f *fused) *float64 { return &f.lexical })
	minMax(order, func(f *fused) *float64 { return &f.vector })

	out := make([]fused, len(order))
	for i, f := range order {
		f.combined = tw*f.lexical + vw*f.vector
		out[i] = *f
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].combined != out[j].combined {
			return out[i].combined > out[j].combined
		}
		if out[i].vector != out[j].vector {
			return out[i].vector > out[j].vector
		}
		return out[i].id < out[j].id
	})
	return out
}

// minMax rescales one signal to [0,1] in place. When every value is equal,
// positive values map to 1 and zeros stay 0.
func minMax(cands []*fused, field func(*fused) *float64) {
	if len(cands) == 0 {
		return
	}
	lo, hi := *field(cands[0]), *field(cands[0])
	for _, c := range cands[1:] {
		v := *field(c)
		lo = min(lo, v)
		hi = max(hi, v)
	}
	for _, c := range cands {
		p := field(c)
		if hi == lo {
			if *p > 0 {
				*p = 1
			} else {
				*p = 0
			}
			continue
		}
		*p = (*p - lo) / (hi - lo)
	}
}
