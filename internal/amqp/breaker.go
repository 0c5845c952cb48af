package amqp

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// breaker stops publishing after repeated failures and lets one trial publish through
// once cooldown has passed since the last failure.
type breaker struct {
	mu        sync.Mutex
	state     int32
	failures  int
	threshold int
	cooldown  time.Duration
	lastFail  time.Time
	now       func() time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a publish may be attempted.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.lastFail) > b.cooldown {
		b.state = StateHalfOpen
	}
	return b.state != StateOpen
}

func (b *breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// Failure trips the breaker at the threshold, or at once while half-open.
func (b *breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFail = b.now()
	if b.failures >= b.threshold || b.state == StateHalfOpen {
		b.state = StateOpen
	}
}

func (b *breaker) State() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// backoff doubles from one second per attempt up to maxBackoff.
func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

var connectionErrorHints = []string{
	"connection refused",
	"connection closed",
	"eof",
	"broken pipe",
	"closed network connection",
	"channel/connection is not open",
}

// isConnectionError reports whether err means the broker link is gone and a reconnect is due.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range connectionErrorHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
