package utils

import (
	"github.com/sasha-s/go-deadlock"
)

// Topic fans values out to handlers, which run synchronously on the
// publishing goroutine, and to channel subscribers.
type Topic[T any] struct {
	subscribers map[chan T]struct{}
	handlers    map[int]func(T)
	nextHandler int
	mutex       deadlock.Mutex
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
		handlers:    make(map[int]func(T)),
	}
}

func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	handlers := make([]func(T), 0, len(t.handlers))
	for i := 0; i < t.nextHandler; i++ {
		if handler, ok := t.handlers[i]; ok {
			handlers = append(handlers, handler)
		}
	}
	channels := make([]chan T, 0, len(t.subscribers))
	for subscriber := range t.subscribers {
		channels = append(channels, subscriber)
	}
	t.mutex.Unlock()

	for _, handler := range handlers {
		handler(value)
	}

	for _, channel := range channels {
		select {
		case channel <- value:
		default:
			// Slow subscribers miss values rather than stall writers
		}
	}
}

// Handle registers a function that is called for every published value
// before Publish returns. The returned function unregisters it.
func (t *Topic[T]) Handle(handler func(T)) func() {
	t.mutex.Lock()
	id := t.nextHandler
	t.nextHandler++
	t.handlers[id] = handler
	t.mutex.Unlock()

	return func() {
		t.mutex.Lock()
		delete(t.handlers, id)
		t.mutex.Unlock()
	}
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

// Subscribe returns a buffered channel subscription.
func (t *Topic[T]) Subscribe() *Subscriber[T] {
	channel := make(chan T, 64)
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (t *Subscriber[T]) Recv() <-chan T {
	return t.channel
}

func (t *Subscriber[T]) Done() {
	topic := t.topic
	topic.mutex.Lock()
	delete(topic.subscribers, t.channel)
	topic.mutex.Unlock()
}
