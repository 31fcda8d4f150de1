package ingestion

// threadChains splits a batch into chains of positions that must run in
// order: messages that name each other in In-Reply-To or References, and
// repeated copies of one Message-ID. Every message follows the ones it
// refers to; otherwise batch order is kept. nil entries (failed
// normalization) stand alone. Chains are returned in order of their first
// member.
func threadChains(msgs []*InboundMessage) [][]int {
	n := len(msgs)
	byID := make(map[string]int, n)
	for i, m := range msgs {
		if m == nil {
			continue
		}
		if _, ok := byID[m.MessageID]; !ok {
			byID[m.MessageID] = i
		}
	}

	root := make([]int, n)
	for i := range root {
		root[i] = i
	}
	find := func(i int) int {
		for root[i] != i {
			root[i] = root[root[i]]
			i = root[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		switch {
		case ra < rb:
			root[rb] = ra
		case rb < ra:
			root[ra] = rb
		}
	}

	deps := make([][]int, n)
	for i, m := range msgs {
		if m == nil {
			continue
		}
		if j := byID[m.MessageID]; j != i {
			deps[i] = append(deps[i], j)
		}
		for _, ref := range append([]string{m.InReplyTo}, m.References...) {
			if j, ok := byID[ref]; ok && j != i && ref != "" {
				deps[i] = append(deps[i], j)
			}
		}
		for _, j := range deps[i] {
			union(i, j)
		}
	}

	groups := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	chains := make([][]int, 0, len(roots))
	for _, r := range roots {
		chains = append(chains, orderChain(groups[r], deps))
	}
	return chains
}

// orderChain sorts members so each follows its dependencies, in batch order
// otherwise. A reference cycle is broken at its earliest member.
func orderChain(members []int, deps [][]int) []int {
	if len(members) == 1 {
		return members
	}

	done := make(map[int]bool, len(members))
	out := make([]int, 0, len(members))
	for len(out) < len(members) {
		progressed := false
		for _, i := range members {
			if done[i] || !allDone(deps[i], done) {
				continue
			}
			done[i] = true
			out = append(out, i)
			progressed = true
		}
		if progressed {
			continue
		}
		for _, i := range members {
			if !done[i] {
				done[i] = true
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func allDone(deps []int, done map[int]bool) bool {
	for _, j := range deps {
		if !done[j] {
			return false
		}
	}
	return true
}
