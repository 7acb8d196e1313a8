package dialogue

// State is the engine's position in the delivery rescheduling script.
type State int

const (
	StateOpening State = iota
	StateVerifyPerson
	StateOfferDates
	StateConfirmDate
	StateOfferNeighbor
	StateCollectNeighborName
	StateConfirmNeighbor
	StateClose
)

var stateNames = [...]string{
	StateOpening:             "OPENING",
	StateVerifyPerson:        "VERIFY_PERSON",
	StateOfferDates:          "OFFER_DATES",
	StateConfirmDate:         "CONFIRM_DATE",
	StateOfferNeighbor:       "OFFER_NEIGHBOR",
	StateCollectNeighborName: "COLLECT_NEIGHBOR_NAME",
	StateConfirmNeighbor:     "CONFIRM_NEIGHBOR",
	StateClose:               "CLOSE",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateClose
}

// Context is the scratch data collected while a branch is still unconfirmed.
// A nil field has not been collected.
type Context struct {
	Date         *string
	NeighborName *string
}
