package middleware

import (
	"sync"
	"time"
)

// RateLimiter держит скользящее окно команд на игрока: не больше limit
// срабатываний за window. Окно общее для всех команд — и для статуса,
// и для покупки билета, которая ходит в БД.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Close останавливает фоновую очистку. Вызывается на shutdown.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, пропускать ли очередную команду пользователя,
// и при положительном ответе учитывает её в окне.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := prune(rl.seen[userID], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.seen[userID] = recent
		return false
	}

	rl.seen[userID] = append(recent, now)
	return true
}

// prune отбрасывает отметки старше cutoff, не выделяя новый слайс.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// janitor периодически выкидывает из карты затихших пользователей,
// чтобы она не росла бесконечно.
func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window)
			for userID, stamps := range rl.seen {
				kept := prune(stamps, cutoff)
				if len(kept) == 0 {
					delete(rl.seen, userID)
					continue
				}
				rl.seen[userID] = kept
			}
			rl.mu.Unlock()
		}
	}
}
