// Package pubsub is a small application-scoped broker. It replaces the
// ambient cross-view "catalog changed" signal with an explicit channel
// so subscribers can be wired and tested independently.
package pubsub

import "sync"

const TopicCatalogReloaded = "catalog-reloaded"

type Broker struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]chan struct{})}
}

// Subscribe returns a channel that receives a signal per publish on the
// topic. The channel is buffered; a slow subscriber coalesces signals
// instead of blocking the publisher.
func (b *Broker) Subscribe(topic string) <-chan struct{} {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	return ch
}

func (b *Broker) Publish(topic string) {
	b.mu.Lock()
	subs := b.subs[topic]
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
