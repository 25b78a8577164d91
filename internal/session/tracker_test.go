package session

import (
	"testing"
	"time"
)

func waitForDelivery(t *testing.T, s *Store, id string, want DeliveryState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, turn := range s.Turns() {
			if turn.ID == id && turn.Delivery == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("turn %s never reached %q", id, want)
}

func TestDeliveryTracker_AdvancesThroughStates(t *testing.T) {
	store := newTestStore()
	tracker := NewDeliveryTracker(store, 10*time.Millisecond, 30*time.Millisecond)
	defer tracker.Stop()

	turn := NewUserTurn("привет", nil)
	store.Append(turn)
	tracker.Track(turn.ID)

	waitForDelivery(t, store, turn.ID, DeliverySent)
	waitForDelivery(t, store, turn.ID, DeliveryDelivered)
}

func TestDeliveryTracker_StopCancelsPendingTimers(t *testing.T) {
	store := newTestStore()
	tracker := NewDeliveryTracker(store, 20*time.Millisecond, 40*time.Millisecond)

	turn := NewUserTurn("привет", nil)
	store.Append(turn)
	tracker.Track(turn.ID)
	tracker.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := store.Turns()[1].Delivery; got != DeliverySending {
		t.Fatalf("expected sending after Stop, got %q", got)
	}

	// После Stop новые реплики не отслеживаются.
	late := NewUserTurn("поздно", nil)
	store.Append(late)
	tracker.Track(late.ID)
	time.Sleep(80 * time.Millisecond)
	if got := store.Turns()[2].Delivery; got != DeliverySending {
		t.Fatalf("expected sending for turn tracked after Stop, got %q", got)
	}
}

func TestDeliveryTracker_LateTimerDoesNotDowngradeRead(t *testing.T) {
	store := newTestStore()
	tracker := NewDeliveryTracker(store, 20*time.Millisecond, 40*time.Millisecond)
	defer tracker.Stop()

	turn := NewUserTurn("привет", nil)
	store.Append(turn)
	tracker.Track(turn.ID)

	// Ответ успел раньше таймеров.
	store.Advance(turn.ID, DeliveryRead)

	time.Sleep(80 * time.Millisecond)
	if got := store.Turns()[1].Delivery; got != DeliveryRead {
		t.Fatalf("expected read to survive late timers, got %q", got)
	}
}
