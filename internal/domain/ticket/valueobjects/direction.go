package valueobjects

// Direction tells whether an email was received from or sent to a customer.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) String() string {
	return string(d)
}

func (d Direction) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}
