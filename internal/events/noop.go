package events

import (
	"context"
	"sync"
)

// NoOpPublisher ничего не публикует. Используется, когда Redis не настроен.
type NoOpPublisher struct{}

// Publish ничего не делает
func (NoOpPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

// Recorder запоминает опубликованные события
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

// Publish сохраняет событие и возвращает Err
func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Events возвращает копию сохраненных событий
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
