package model

// FeasibilityPredicate is, per block, the set of ordered job-id pairs
// (i, j) for which vehicle reuse (j immediately follows i on one vehicle)
// is allowed. It is derived once and never mutated after construction.
type FeasibilityPredicate struct {
	pairs map[[2]string]float64 // (i,j) -> score in [0,1]
}

// NewFeasibilityPredicate returns an empty predicate.
func NewFeasibilityPredicate() *FeasibilityPredicate {
	return &FeasibilityPredicate{pairs: make(map[[2]string]float64)}
}

// Allow records that j may follow i, with the given pair-quality score.
func (p *FeasibilityPredicate) Allow(i, j string, score float64) {
	p.pairs[[2]string{i, j}] = score
}

// Feasible reports whether j may follow i, and the pair's score.
func (p *FeasibilityPredicate) Feasible(i, j string) (float64, bool) {
	s, ok := p.pairs[[2]string{i, j}]
	return s, ok
}

// Pairs returns every (i, j) feasible pair currently recorded. The order is
// unspecified; callers that need determinism must sort the result.
func (p *FeasibilityPredicate) Pairs() []FeasiblePair {
	out := make([]FeasiblePair, 0, len(p.pairs))
	for k, score := range p.pairs {
		out = append(out, FeasiblePair{From: k[0], To: k[1], Score: score})
	}
	return out
}

// FeasiblePair is one ordered, scored feasible successor relation.
type FeasiblePair struct {
	From  string
	To    string
	Score float64
}
