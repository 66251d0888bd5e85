package pipeline

import "slices"

// registry is the bookkeeping of currently registered resolver capabilities.
// Insertion order is retained so that exact weight ties resolve to the
// first-registered capability. Only the pipeline's event loop touches it;
// concurrent access goes through the Pipeline entry points.
type registry struct {
	resolvers []Resolver
}

func (g *registry) add(r Resolver) {
	g.resolvers = append(g.resolvers, r)
}

func (g *registry) remove(r Resolver) bool {
	for i, existing := range g.resolvers {
		if existing == r {
			g.resolvers = slices.Delete(g.resolvers, i, i+1)
			return true
		}
	}
	return false
}

func (g *registry) len() int {
	return len(g.resolvers)
}

// next selects the best untried resolver for req: the strictly greatest
// weight wins, scan order breaks ties. Returns nil when every registered
// resolver has been attempted.
func (g *registry) next(req Request) Resolver {
	tried := req.ResolvedBy()

	var best Resolver
	for _, r := range g.resolvers {
		if slices.Contains(tried, r) {
			continue
		}

		if best == nil || r.Weight() > best.Weight() {
			best = r
		}
	}

	return best
}
