package session

import "testing"

func newTestStore() *Store {
	return NewStore(NewWelcomeTurn("добро пожаловать"))
}

func TestStore_AppendKeepsOrder(t *testing.T) {
	s := newTestStore()

	first := NewUserTurn("первый", nil)
	second := NewAssistantTurn("второй")
	s.Append(first)
	s.Append(second)

	turns := s.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if !turns[0].IsWelcome() {
		t.Fatalf("expected welcome turn first")
	}
	if turns[1].ID != first.ID || turns[2].ID != second.ID {
		t.Fatalf("turns out of order")
	}
}

func TestStore_AdvanceForwardOnly(t *testing.T) {
	s := newTestStore()
	turn := NewUserTurn("привет", nil)
	s.Append(turn)

	if !s.Advance(turn.ID, DeliverySent) {
		t.Fatalf("sending -> sent must be allowed")
	}
	if !s.Advance(turn.ID, DeliveryDelivered) {
		t.Fatalf("sent -> delivered must be allowed")
	}
	if s.Advance(turn.ID, DeliverySending) {
		t.Fatalf("delivered -> sending must be rejected")
	}
	if s.Advance(turn.ID, DeliverySent) {
		t.Fatalf("delivered -> sent must be rejected")
	}
	if !s.Advance(turn.ID, DeliveryRead) {
		t.Fatalf("delivered -> read must be allowed")
	}
	if s.Advance(turn.ID, DeliveryDelivered) {
		t.Fatalf("read is terminal")
	}

	if got := s.Turns()[1].Delivery; got != DeliveryRead {
		t.Fatalf("expected read, got %q", got)
	}
}

func TestStore_AdvanceSkipsForward(t *testing.T) {
	s := newTestStore()
	turn := NewUserTurn("привет", nil)
	s.Append(turn)

	// Ответ ассистента может прийти раньше таймеров: sending -> read
	// одним шагом допустим, а опоздавшие таймеры после этого — нет.
	if !s.Advance(turn.ID, DeliveryRead) {
		t.Fatalf("sending -> read must be allowed")
	}
	if s.Advance(turn.ID, DeliverySent) {
		t.Fatalf("late timer must not downgrade read")
	}
	if s.Advance(turn.ID, DeliveryDelivered) {
		t.Fatalf("late timer must not downgrade read")
	}
}

func TestStore_RemoveRollsBackOptimisticTurn(t *testing.T) {
	s := newTestStore()
	kept := NewUserTurn("остаётся", nil)
	s.Append(kept)
	before := s.Turns()

	failed := NewUserTurn("откатится", nil)
	s.Append(failed)
	if !s.Remove(failed.ID) {
		t.Fatalf("expected remove to succeed")
	}
	if s.Remove(failed.ID) {
		t.Fatalf("second remove must be a no-op")
	}

	after := s.Turns()
	if len(after) != len(before) {
		t.Fatalf("expected %d turns after rollback, got %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatalf("turn %d changed after rollback", i)
		}
	}
}

func TestStore_HistoryExcludesWelcome(t *testing.T) {
	s := newTestStore()
	s.Append(NewUserTurn("вопрос", nil))
	s.Append(NewAssistantTurn("ответ"))

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history items, got %d", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "вопрос" {
		t.Fatalf("unexpected first item: %+v", history[0])
	}
	if history[1].Role != "assistant" || history[1].Content != "ответ" {
		t.Fatalf("unexpected second item: %+v", history[1])
	}

	persistable := s.Persistable()
	if len(persistable) != 2 {
		t.Fatalf("expected 2 persistable turns, got %d", len(persistable))
	}
	for _, turn := range persistable {
		if turn.IsWelcome() {
			t.Fatalf("welcome turn must not be persisted")
		}
	}
}

func TestStore_ResetSeedsSingleWelcome(t *testing.T) {
	s := newTestStore()
	s.Append(NewUserTurn("вопрос", nil))
	s.Append(NewAssistantTurn("ответ"))

	s.Reset(NewWelcomeTurn("снова привет"))

	turns := s.Turns()
	if len(turns) != 1 {
		t.Fatalf("expected single turn after reset, got %d", len(turns))
	}
	if !turns[0].IsWelcome() || turns[0].Content != "снова привет" {
		t.Fatalf("unexpected turn after reset: %+v", turns[0])
	}
}
