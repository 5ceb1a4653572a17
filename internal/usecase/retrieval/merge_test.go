package retrieval

import (
	"math"
	"testing"

	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFuseWeighted_UnionWithZeroFill(t *testing.T) {
	lex := []result.Hit{{ID: "a", Score: 2}, {ID: "b", Score: 1}}
	vec := []result.Hit{{ID: "b", Score: 1}, {ID: "c", Score: 0}}

	got := fuseWeighted(lex, vec, 0.5, 0.5)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}

	want := []fused{
		{id: "b", lexical: 0.5, vector: 1, combined: 0.75},
		{id: "a", lexical: 1, vector: 0, combined: 0.5},
		{id: "c", lexical: 0, vector: 0.5, combined: 0.25},
	}
	for i, w := range want {
		g := got[i]
		if g.id != w.id || !approx(g.lexical, w.lexical) || !approx(g.vector, w.vector) || !approx(g.combined, w.combined) {
			t.Errorf("candidate %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestFuseWeighted_VectorOnlyCandidateHasZeroLexical(t *testing.T) {
	got := fuseWeighted(
		[]result.Hit{{ID: "a", Score: 1.5}},
		[]result.Hit{{ID: "a", Score: 0.2}, {ID: "v", Score: 0.9}},
		0.7, 0.3,
	)
	for _, f := range got {
		if f.id == "v" && f.lexical != 0 {
			t.Errorf("vector-only candidate lexical = %v, want 0", f.lexical)
		}
	}
}

func TestFuseWeighted_EqualValues(t *testing.T) {
	got := fuseWeighted([]result.Hit{{ID: "a", Score: 3}}, nil, 0.5, 0.5)
	if len(got) != 1 || got[0].lexical != 1 || got[0].vector != 0 || !approx(got[0].combined, 0.5) {
		t.Errorf("single candidate = %+v", got)
	}

	got = fuseWeighted(nil, []result.Hit{{ID: "a", Score: 0.4}, {ID: "b", Score: 0.4}}, 0, 1)
	for _, f := range got {
		if f.vector != 1 {
			t.Errorf("equal positive vector scores should normalize to 1, got %+v", f)
		}
	}
	if got[0].id != "a" {
		t.Errorf("ties should break by id, got %s first", got[0].id)
	}
}

func TestFuseWeighted_TieBreakByVectorThenID(t *testing.T) {
	// Both combined = 0.5; "z" wins on vector score.
	got := fuseWeighted(
		[]result.Hit{{ID: "a", Score: 1}},
		[]result.Hit{{ID: "z", Score: 1}, {ID: "a", Score: -1}},
		0.5, 0.5,
	)
	if got[0].id != "z" || got[1].id != "a" {
		t.Errorf("order = %s,%s, want z,a", got[0].id, got[1].id)
	}
}

func TestFuseWeighted_Empty(t *testing.T) {
	if got := fuseWeighted(nil, nil, 0.5, 0.5); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFuseWeighted_SortedByCombined(t *testing.T) {
	lex := []result.Hit{{ID: "a", Score: 5}, {ID: "b", Score: 3}, {ID: "c", Score: 0.5}, {ID: "d", Score: 0.1}}
	vec := []result.Hit{{ID: "d", Score: 0.9}, {ID: "e", Score: 0.8}, {ID: "b", Score: -0.3}}

	got := fuseWeighted(lex, vec, 0.4, 0.6)
	for i := 1; i < len(got); i++ {
		if got[i].combined > got[i-1].combined {
			t.Fatalf("not sorted at %d: %v > %v", i, got[i].combined, got[i-1].combined)
		}
	}
	for _, f := range got {
		if f.lexical < 0 || f.lexical > 1 || f.vector < 0 || f.vector > 1 {
			t.Errorf("scores out of [0,1]: %+v", f)
		}
	}
}
