package importer

import (
	"encoding/json"
	"testing"
)

func TestState_HappyPath(t *testing.T) {
	t.Parallel()

	s := NotStarted
	for _, next := range []State{SchemaCreated, CategoriesLoaded, ClientsLoaded, SubscriptionsLoaded, TransactionsLoaded, Reported} {
		if err := s.advance(next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if s != Reported || !s.Terminal() {
		t.Fatalf("final state %s", s)
	}
	if err := s.advance(Failed); err == nil {
		t.Fatal("left a terminal state")
	}
}

func TestState_FailedFromAnywhere(t *testing.T) {
	t.Parallel()

	for s := NotStarted; s < Reported; s++ {
		cur := s
		if err := cur.advance(Failed); err != nil || cur != Failed {
			t.Fatalf("%s -> failed: %v", s, err)
		}
	}
}

func TestState_RejectsSkips(t *testing.T) {
	t.Parallel()

	s := SchemaCreated
	if err := s.advance(SubscriptionsLoaded); err == nil {
		t.Fatal("skipping clients accepted")
	}
	if s != SchemaCreated {
		t.Fatalf("state changed on rejected transition: %s", s)
	}
	if err := s.advance(NotStarted); err == nil {
		t.Fatal("backwards transition accepted")
	}
}

func TestState_Names(t *testing.T) {
	t.Parallel()

	if got := SubscriptionsLoaded.String(); got != "subscriptions_loaded" {
		t.Fatalf("String = %q", got)
	}
	if got := State(42).String(); got != "state(42)" {
		t.Fatalf("out of range String = %q", got)
	}
	b, err := json.Marshal(struct{ S State }{Failed})
	if err != nil || string(b) != `{"S":"failed"}` {
		t.Fatalf("json = %s, %v", b, err)
	}
}
