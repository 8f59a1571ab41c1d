package events

import (
	"errors"
	"testing"
	"time"

	"hostly/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutClientDeliversLocally(t *testing.T) {
	bus := New(nil, config.Config{})
	defer func() { _ = bus.Close() }()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(CALENDAR_SYNC_CHANNEL, func(event Event) error {
		received <- event
		return nil
	}))

	userID := uuid.New()
	require.NoError(t, bus.Publish(CALENDAR_SYNC_CHANNEL, Event{
		Type:   CALENDAR_SYNC_COMPLETE,
		UserID: &userID,
		Data:   map[string]any{"imported": 3},
	}))

	select {
	case event := <-received:
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, CALENDAR_SYNC_CHANNEL, event.Channel)
		assert.Equal(t, CALENDAR_SYNC_COMPLETE, event.Type)
		assert.False(t, event.Timestamp.IsZero())
		require.NotNil(t, event.UserID)
		assert.Equal(t, userID, *event.UserID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublishIgnoresOtherChannels(t *testing.T) {
	bus := New(nil, config.Config{})
	defer func() { _ = bus.Close() }()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(BROADCAST_CHANNEL, func(event Event) error {
		received <- event
		return nil
	}))

	require.NoError(t, bus.Publish(CALENDAR_SYNC_CHANNEL, Event{Type: CALENDAR_SYNC_PROGRESS}))

	select {
	case <-received:
		t.Fatal("broadcast handler received a calendar sync event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := New(nil, config.Config{})
	defer func() { _ = bus.Close() }()

	received := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe(BROADCAST_CHANNEL, func(Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(BROADCAST_CHANNEL, func(Event) error {
		received <- struct{}{}
		return nil
	}))

	require.NoError(t, bus.Publish(BROADCAST_CHANNEL, Event{Type: BROADCAST}))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("second handler was not called")
	}
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "calendar_sync", CALENDAR_SYNC_CHANNEL.String())
}
