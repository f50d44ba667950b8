package handler

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/gwtrade/tradepost/internal/domain"
)

func newTestWSClient() *wsClient {
	return &wsClient{
		send:   make(chan []byte, 1),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestWSClient_PushAfterShutdownIsDropped(t *testing.T) {
	c := newTestWSClient()
	counts := map[string]domain.OrderCounts{"Fellblade": {SellOnline: 1}}

	c.PushAvailableOrders(counts)
	c.shutdown()
	c.PushAvailableOrders(counts) // must not hit the closed queue
	c.shutdown()                  // idempotent

	if msg, ok := <-c.send; !ok || len(msg) == 0 {
		t.Fatal("message queued before shutdown was lost")
	}
	if _, ok := <-c.send; ok {
		t.Fatal("queue still open after shutdown")
	}
}

// A broadcast that grabbed the observer list just before Unsubscribe
// can deliver concurrently with connection teardown; neither side may
// panic.
func TestWSClient_ConcurrentPushAndShutdown(t *testing.T) {
	counts := map[string]domain.OrderCounts{"Fellblade": {SellOnline: 1}}

	for i := 0; i < 200; i++ {
		c := newTestWSClient()
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				c.PushAvailableOrders(counts)
			}
		}()
		go func() {
			defer wg.Done()
			c.shutdown()
		}()
		wg.Wait()
	}
}
