package websocket

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

// hub keeps the broadcast groups, one per session code.
type hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[*client]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:      logger,
		subscribers: make(map[string]map[*client]struct{}),
	}
}

// subscribe reports whether c was not in the group before.
func (that *hub) subscribe(code string, c *client) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	group, ok := that.subscribers[code]
	if !ok {
		group = make(map[*client]struct{})
		that.subscribers[code] = group
	}

	if _, ok = group[c]; ok {
		return false
	}

	group[c] = struct{}{}
	c.codes[code] = struct{}{}

	return true
}

func (that *hub) unsubscribe(code string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(code, c)
}

func (that *hub) removeLocked(code string, c *client) {
	delete(c.codes, code)

	group, ok := that.subscribers[code]
	if !ok {
		return
	}

	delete(group, c)
	if len(group) == 0 {
		delete(that.subscribers, code)
	}
}

// drop removes c from every group it follows.
func (that *hub) drop(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for code := range c.codes {
		that.removeLocked(code, c)
	}
}

// forget removes the whole group of code; its clients stay connected.
func (that *hub) forget(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.subscribers[code] {
		delete(c.codes, code)
	}
	delete(that.subscribers, code)
}

// broadcast queues data for every subscriber of code. Subscribers whose queue
// is full are disconnected.
func (that *hub) broadcast(code string, data []byte) {
	that.mu.RLock()
	slow := lo.Filter(lo.Keys(that.subscribers[code]), func(c *client, _ int) bool {
		return !c.enqueue(data)
	})
	that.mu.RUnlock()

	for _, c := range slow {
		that.logger.Warn("dropping slow subscriber", "code", code, "connection", c.id)
		that.drop(c)
		c.close()
	}
}

func (that *hub) count(code string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.subscribers[code])
}
