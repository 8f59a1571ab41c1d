package services

import (
	"sync"
	"testing"
	"time"

	"hostly/internal/database"
	"hostly/internal/events"
	"hostly/internal/testutil"
)

func setupSQLite(t *testing.T) database.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(channel events.Channel, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.Channel = channel
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.MessageType, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

func date(y int, m time.Month, d int) time.Time {
	return testutil.Date(y, m, d)
}
