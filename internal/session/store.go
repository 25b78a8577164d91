package session

import "sync"

// Store хранит упорядоченный список реплик одной активной сессии.
// Порядок только append, никаких перестановок.
type Store struct {
	mu    sync.Mutex
	turns []Turn
}

func NewStore(welcome Turn) *Store {
	return &Store{turns: []Turn{welcome}}
}

func (s *Store) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, t)
}

// Advance переводит реплику в новое состояние доставки. Переход только
// вперёд: попытка вернуть состояние назад игнорируется, поэтому опоздавший
// таймер доставки не затирает уже проставленное "read".
func (s *Store) Advance(id string, state DeliveryState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.turns {
		if s.turns[i].ID != id {
			continue
		}
		if deliveryRank[state] <= deliveryRank[s.turns[i].Delivery] {
			return false
		}
		s.turns[i].Delivery = state
		return true
	}
	return false
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.turns {
		if s.turns[i].ID == id {
			s.turns = append(s.turns[:i], s.turns[i+1:]...)
			return true
		}
	}
	return false
}

// Reset очищает сессию и заново сеет приветствие. Используется при старте
// сессии и по явному "очистить чат".
func (s *Store) Reset(welcome Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = []Turn{welcome}
}

func (s *Store) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// History возвращает реплики в формате для модели, без приветствия.
func (s *Store) History() []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]HistoryItem, 0, len(s.turns))
	for _, t := range s.turns {
		if t.IsWelcome() {
			continue
		}
		history = append(history, HistoryItem{Role: string(t.Role), Content: t.Content})
	}
	return history
}

// Persistable возвращает реплики для сохранения: всё, кроме приветствия.
func (s *Store) Persistable() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		if t.IsWelcome() {
			continue
		}
		out = append(out, t)
	}
	return out
}
