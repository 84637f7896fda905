package session

import "testing"

func TestEventChannel_PublishReachesSubscribers(t *testing.T) {
	c := NewEventChannel()

	var got []ExpiredEvent
	c.Subscribe(func(ev ExpiredEvent) { got = append(got, ev) })

	ev := ExpiredEvent{Reason: ReasonUnauthorized, Message: "nope"}
	c.Publish(ev)

	if len(got) != 1 || got[0] != ev {
		t.Fatalf("got %v, want one %v", got, ev)
	}
}

func TestEventChannel_NoReplay(t *testing.T) {
	c := NewEventChannel()
	c.Publish(ExpiredEvent{Reason: ReasonExpiredToken, Message: "early"})

	called := false
	c.Subscribe(func(ExpiredEvent) { called = true })
	if called {
		t.Error("late subscriber must not see earlier events")
	}
}

func TestEventChannel_Unsubscribe(t *testing.T) {
	c := NewEventChannel()

	calls := 0
	unsub := c.Subscribe(func(ExpiredEvent) { calls++ })

	c.Publish(ExpiredEvent{Reason: ReasonExpiredToken})
	unsub()
	unsub() // second call is harmless
	c.Publish(ExpiredEvent{Reason: ReasonExpiredToken})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestEventChannel_SubscriberOrder(t *testing.T) {
	c := NewEventChannel()

	var order []int
	c.Subscribe(func(ExpiredEvent) { order = append(order, 1) })
	c.Subscribe(func(ExpiredEvent) { order = append(order, 2) })
	c.Subscribe(func(ExpiredEvent) { order = append(order, 3) })

	c.Publish(ExpiredEvent{})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestEventChannel_HandlerMayUnsubscribeItself(t *testing.T) {
	c := NewEventChannel()

	calls := 0
	var unsub func()
	unsub = c.Subscribe(func(ExpiredEvent) {
		calls++
		unsub()
	})

	c.Publish(ExpiredEvent{})
	c.Publish(ExpiredEvent{})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
