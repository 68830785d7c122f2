package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

func TestHub_Subscriptions(t *testing.T) {
	t.Run("Subscribe is idempotent per client", func(t *testing.T) {
		h := newHub(suite.NewLogger())
		c := newClient("c1", nil, 4)

		assert.True(t, h.subscribe("ABC123", c))
		assert.False(t, h.subscribe("ABC123", c))
		assert.Equal(t, 1, h.count("ABC123"))
	})

	t.Run("Drop removes the client from every group", func(t *testing.T) {
		h := newHub(suite.NewLogger())
		c := newClient("c1", nil, 4)
		other := newClient("c2", nil, 4)
		h.subscribe("ABC123", c)
		h.subscribe("XYZ789", c)
		h.subscribe("XYZ789", other)

		h.drop(c)

		assert.Zero(t, h.count("ABC123"))
		assert.Equal(t, 1, h.count("XYZ789"))
		assert.Empty(t, c.codes)
		assert.NotContains(t, h.subscribers, "ABC123")
	})

	t.Run("Forget empties the group but keeps clients", func(t *testing.T) {
		h := newHub(suite.NewLogger())
		c := newClient("c1", nil, 4)
		h.subscribe("ABC123", c)
		h.subscribe("XYZ789", c)

		h.forget("ABC123")

		assert.Zero(t, h.count("ABC123"))
		assert.Equal(t, map[string]struct{}{"XYZ789": {}}, c.codes)
	})
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("Every subscriber gets the message in order", func(t *testing.T) {
		// Given: two clients following the same session
		h := newHub(suite.NewLogger())
		first := newClient("c1", nil, 4)
		second := newClient("c2", nil, 4)
		h.subscribe("ABC123", first)
		h.subscribe("ABC123", second)

		// When: two messages are broadcast
		h.broadcast("ABC123", []byte("one"))
		h.broadcast("ABC123", []byte("two"))
		h.broadcast("OTHER1", []byte("ignored"))

		// Then: both receive them in the same order
		for _, c := range []*client{first, second} {
			require.Len(t, c.send, 2)
			assert.Equal(t, "one", string(<-c.send))
			assert.Equal(t, "two", string(<-c.send))
		}
	})

	t.Run("Slow subscriber is dropped without blocking others", func(t *testing.T) {
		// Given: a client whose queue holds a single message
		h := newHub(suite.NewLogger())
		slow := newClient("slow", nil, 1)
		fast := newClient("fast", nil, 4)
		h.subscribe("ABC123", slow)
		h.subscribe("ABC123", fast)

		// When: two messages are broadcast
		h.broadcast("ABC123", []byte("one"))
		h.broadcast("ABC123", []byte("two"))

		// Then: the slow one is disconnected and the fast one got both
		assert.Equal(t, 1, h.count("ABC123"))
		assert.Len(t, fast.send, 2)

		select {
		case <-slow.done:
		default:
			t.Fatal("slow client was not closed")
		}
		assert.False(t, slow.enqueue([]byte("three")))
	})
}
