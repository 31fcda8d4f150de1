package ticket

import "fmt"

// ThreadEdge links a parent email to the email that replied to or
// referenced it.
type ThreadEdge struct {
	ParentEmailID uint
	ChildEmailID  uint
}

func NewThreadEdge(parentEmailID, childEmailID uint) (ThreadEdge, error) {
	if parentEmailID == 0 || childEmailID == 0 {
		return ThreadEdge{}, fmt.Errorf("thread edge requires both email IDs")
	}
	if parentEmailID == childEmailID {
		return ThreadEdge{}, ErrSelfLoop
	}
	return ThreadEdge{ParentEmailID: parentEmailID, ChildEmailID: childEmailID}, nil
}

// DedupEdges drops repeated pairs and self-loops, keeping the first
// occurrence order.
func DedupEdges(edges []ThreadEdge) []ThreadEdge {
	seen := make(map[ThreadEdge]struct{}, len(edges))
	out := make([]ThreadEdge, 0, len(edges))
	for _, e := range edges {
		if e.ParentEmailID == e.ChildEmailID {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
