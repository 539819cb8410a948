package app

import (
	"sync"
	"time"

	"safeher_travel/internal/domain"
)

type CountdownState string

const (
	CountdownIdle      CountdownState = "idle"
	CountdownCounting  CountdownState = "counting_down"
	CountdownTriggered CountdownState = "triggered"
)

const DefaultCountdownSeconds = 5

// TickerFunc starts a ticker and returns its channel and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Countdown is the SOS arming state machine: idle -> counting_down -> triggered.
// Only the counting_down state can be cancelled.
type Countdown struct {
	mu        sync.Mutex
	n         int
	remaining int
	state     CountdownState
	onTrigger func()
	interval  time.Duration
	ticker    TickerFunc
	stop      chan struct{}
	gen       int
}

func NewCountdown(seconds int, onTrigger func()) *Countdown {
	return newCountdown(seconds, onTrigger, time.Second, realTicker)
}

func newCountdown(seconds int, onTrigger func(), interval time.Duration, tf TickerFunc) *Countdown {
	if seconds <= 0 {
		seconds = DefaultCountdownSeconds
	}
	return &Countdown{
		n: seconds, remaining: seconds, state: CountdownIdle,
		onTrigger: onTrigger, interval: interval, ticker: tf,
	}
}

// NewManualCountdown returns a countdown driven only by explicit Tick calls.
func NewManualCountdown(seconds int, onTrigger func()) *Countdown {
	return newCountdown(seconds, onTrigger, 0, nil)
}

func (c *Countdown) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CountdownIdle {
		return domain.ErrInvalidTransition
	}
	c.state = CountdownCounting
	c.remaining = c.n
	c.gen++
	if c.ticker != nil {
		ch, stopTicker := c.ticker(c.interval)
		c.stop = make(chan struct{})
		go c.run(c.gen, ch, stopTicker, c.stop)
	}
	return nil
}

func (c *Countdown) run(gen int, ch <-chan time.Time, stopTicker func(), stop <-chan struct{}) {
	defer stopTicker()
	for {
		select {
		case <-stop:
			return
		case <-ch:
			if done := c.tick(gen); done {
				return
			}
		}
	}
}

// Tick advances one second. It reports true once the countdown is no longer running.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.tick(gen)
}

func (c *Countdown) tick(gen int) bool {
	c.mu.Lock()
	if c.state != CountdownCounting || gen != c.gen {
		c.mu.Unlock()
		return true
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}
	c.state = CountdownTriggered
	c.stop = nil
	fire := c.onTrigger
	c.mu.Unlock()

	if fire != nil {
		fire()
	}
	return true
}

func (c *Countdown) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CountdownCounting {
		return domain.ErrInvalidTransition
	}
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.state = CountdownIdle
	c.remaining = c.n
	return nil
}

// Reset returns a triggered countdown to idle.
func (c *Countdown) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CountdownTriggered {
		return domain.ErrInvalidTransition
	}
	c.state = CountdownIdle
	c.remaining = c.n
	return nil
}

func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
