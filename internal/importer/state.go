package importer

import "fmt"

// State is the position of a run in the import lifecycle.
type State int

const (
	NotStarted State = iota
	SchemaCreated
	CategoriesLoaded
	ClientsLoaded
	SubscriptionsLoaded
	TransactionsLoaded
	Reported
	Failed
)

var stateNames = [...]string{
	NotStarted:          "not_started",
	SchemaCreated:       "schema_created",
	CategoriesLoaded:    "categories_loaded",
	ClientsLoaded:       "clients_loaded",
	SubscriptionsLoaded: "subscriptions_loaded",
	TransactionsLoaded:  "transactions_loaded",
	Reported:            "reported",
	Failed:              "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON reports.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Reported || s == Failed }

// advance moves s to next. Only the immediate successor or Failed is
// accepted, and nothing leaves a terminal state.
func (s *State) advance(next State) error {
	switch {
	case s.Terminal():
		return fmt.Errorf("import state: %s is terminal, cannot move to %s", *s, next)
	case next == Failed, next == *s+1:
		*s = next
		return nil
	default:
		return fmt.Errorf("import state: invalid transition %s -> %s", *s, next)
	}
}
