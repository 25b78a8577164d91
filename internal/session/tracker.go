package session

import (
	"sync"
	"time"
)

// Задержки имитации доставки, как в исходном виджете.
const (
	DefaultSentDelay      = 500 * time.Millisecond
	DefaultDeliveredDelay = time.Second
)

// DeliveryTracker двигает свежую пользовательскую реплику по цепочке
// sending → sent → delivered двумя отложенными таймерами. Таймеры
// останавливаются при закрытии сессии, чтобы не трогать уже выброшенный
// Store.
type DeliveryTracker struct {
	store          *Store
	sentDelay      time.Duration
	deliveredDelay time.Duration

	mu      sync.Mutex
	timers  []*time.Timer
	stopped bool
}

func NewDeliveryTracker(store *Store, sentDelay, deliveredDelay time.Duration) *DeliveryTracker {
	return &DeliveryTracker{
		store:          store,
		sentDelay:      sentDelay,
		deliveredDelay: deliveredDelay,
	}
}

func (d *DeliveryTracker) Track(turnID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.timers = append(d.timers,
		time.AfterFunc(d.sentDelay, func() {
			d.store.Advance(turnID, DeliverySent)
		}),
		time.AfterFunc(d.deliveredDelay, func() {
			d.store.Advance(turnID, DeliveryDelivered)
		}),
	)
}

func (d *DeliveryTracker) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
}
