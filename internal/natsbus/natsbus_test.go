package natsbus

import (
	"testing"
	"time"

	"github.com/nlamprou/marvin/internal/config"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := New(config.NATSConfig{
		Port:    0, // Random port
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to create bus: %v", err)
	}
	t.Cleanup(bus.Close)
	return bus
}

func newTestClient(t *testing.T, bus *Bus) *Client {
	t.Helper()
	client, err := NewClient(bus)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestBusStartStop(t *testing.T) {
	bus := newTestBus(t)
	if bus.ClientURL() == "" {
		t.Fatal("expected non-empty client URL")
	}
}

func TestPublishSessionEvent(t *testing.T) {
	bus := newTestBus(t)
	client := newTestClient(t, bus)

	received := make(chan Event, 1)
	_, err := client.SubscribeEvents(TopicEventsSessions, func(ev Event) {
		received <- ev
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	err = client.PublishSessionEvent("s1", Event{Kind: EventTurnStarted, Detail: "hello"})
	if err != nil {
		t.Fatalf("publish event error: %v", err)
	}
	client.Flush()

	select {
	case ev := <-received:
		if ev.Kind != EventTurnStarted || ev.SessionID != "s1" || ev.Detail != "hello" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.At.IsZero() {
			t.Error("expected event timestamp to be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestWildcardSubscriptionSeesRoutineEvents(t *testing.T) {
	bus := newTestBus(t)
	client := newTestClient(t, bus)

	received := make(chan Event, 1)
	_, err := client.SubscribeEvents(TopicEventsAll, func(ev Event) {
		received <- ev
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	err = client.PublishRoutineEvent("r1", Event{Kind: EventRoutineExecuted, Detail: "morning digest"})
	if err != nil {
		t.Fatalf("publish event error: %v", err)
	}
	client.Flush()

	select {
	case ev := <-received:
		if ev.Kind != EventRoutineExecuted || ev.RoutineID != "r1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestTopicNames(t *testing.T) {
	if got := TopicSession("s1"); got != "events.session.s1" {
		t.Errorf("expected events.session.s1, got %s", got)
	}
	if got := TopicRoutine("r1"); got != "events.routine.r1" {
		t.Errorf("expected events.routine.r1, got %s", got)
	}
	if got := TopicTask("send_email"); got != "events.task.send_email" {
		t.Errorf("expected events.task.send_email, got %s", got)
	}
}
