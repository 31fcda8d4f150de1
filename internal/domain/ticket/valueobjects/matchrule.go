package valueobjects

// MatchRule records which resolver rule attached a message to a ticket.
type MatchRule string

const (
	MatchNone         MatchRule = "none"
	MatchInReplyTo    MatchRule = "in_reply_to"
	MatchReferences   MatchRule = "references"
	MatchSubjectToken MatchRule = "subject_token"
)

func (r MatchRule) String() string {
	return string(r)
}

// IsHeaderChain reports whether the match came from In-Reply-To or
// References. Only such matches may reopen a closed ticket.
func (r MatchRule) IsHeaderChain() bool {
	return r == MatchInReplyTo || r == MatchReferences
}
