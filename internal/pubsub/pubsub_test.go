package pubsub

import "testing"

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBroker()
	first := b.Subscribe("topic")
	second := b.Subscribe("topic")

	b.Publish("topic")

	select {
	case <-first:
	default:
		t.Fatal("first subscriber did not receive the signal")
	}
	select {
	case <-second:
	default:
		t.Fatal("second subscriber did not receive the signal")
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("topic")

	// Nobody drains; repeated publishes coalesce into the single
	// buffered slot instead of blocking.
	b.Publish("topic")
	b.Publish("topic")
	b.Publish("topic")

	select {
	case <-ch:
	default:
		t.Fatal("expected at least one pending signal")
	}
	select {
	case <-ch:
		t.Fatal("signals were not coalesced")
	default:
	}
}

func TestPublishToUnknownTopicIsNoop(t *testing.T) {
	b := NewBroker()
	b.Publish("nobody-listens")

	ch := b.Subscribe("other")
	select {
	case <-ch:
		t.Fatal("subscriber received a signal from an unrelated topic")
	default:
	}
}
