package checkout

type Status string

const (
	StatusIdle               Status = "idle"
	StatusAuthorizingPayment Status = "authorizing_payment"
	StatusCreatingOrder      Status = "creating_order"
	StatusCreatingOrderItems Status = "creating_order_items"
	StatusComplete           Status = "complete"
	StatusFailed             Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

func (s Status) String() string {
	return string(s)
}

var next = map[Status]Status{
	StatusIdle:               StatusAuthorizingPayment,
	StatusAuthorizingPayment: StatusCreatingOrder,
	StatusCreatingOrder:      StatusCreatingOrderItems,
	StatusCreatingOrderItems: StatusComplete,
}

// CanTransitionTo reports whether from may move to to. Failed is reachable from every non-terminal stage.
func CanTransitionTo(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return next[from] == to
}
