package repomap

// pageRank runs the standard power-iteration PageRank algorithm over a
// directed call graph (callers []string adjacency, from caller to
// callee), returning a score per node id that sums to 1 across the
// graph.
func pageRank(nodes []string, edges map[string][]string, damping float64, iterations int) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	scores := make(map[string]float64, n)
	for _, id := range nodes {
		scores[id] = 1.0 / float64(n)
	}

	inbound := make(map[string][]string, n)
	outDegree := make(map[string]int, n)

	for from, tos := range edges {
		outDegree[from] = len(tos)
		for _, to := range tos {
			inbound[to] = append(inbound[to], from)
		}
	}

	base := (1 - damping) / float64(n)

	for i := 0; i < iterations; i++ {
		next := make(map[string]float64, n)

		danglingMass := 0.0

		for _, id := range nodes {
			if outDegree[id] == 0 {
				danglingMass += scores[id]
			}
		}

		for _, id := range nodes {
			sum := 0.0

			for _, from := range inbound[id] {
				if outDegree[from] == 0 {
					continue
				}

				sum += scores[from] / float64(outDegree[from])
			}

			next[id] = base + damping*(sum+danglingMass/float64(n))
		}

		scores = next
	}

	return scores
}
