package valueobjects

import "fmt"

// BaseStatus is one of the four workflow states every named status maps onto.
type BaseStatus string

const (
	BaseOpen    BaseStatus = "Open"
	BaseDoing   BaseStatus = "Doing"
	BaseWaiting BaseStatus = "Waiting"
	BaseClosed  BaseStatus = "Closed"
)

var validBaseStatuses = map[BaseStatus]bool{
	BaseOpen:    true,
	BaseDoing:   true,
	BaseWaiting: true,
	BaseClosed:  true,
}

func NewBaseStatus(s string) (BaseStatus, error) {
	bs := BaseStatus(s)
	if !bs.IsValid() {
		return "", fmt.Errorf("invalid base status: %q", s)
	}
	return bs, nil
}

func (bs BaseStatus) String() string {
	return string(bs)
}

func (bs BaseStatus) IsValid() bool {
	return validBaseStatuses[bs]
}

func (bs BaseStatus) IsClosed() bool {
	return bs == BaseClosed
}
