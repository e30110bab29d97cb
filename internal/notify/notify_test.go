package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_DeliversInSubscriptionOrder(t *testing.T) {
	var h Hub[string]
	var got []string

	h.Subscribe(func(ev string) { got = append(got, "a:"+ev) })
	h.Subscribe(func(ev string) { got = append(got, "b:"+ev) })

	h.Publish("EUR")

	assert.Equal(t, []string{"a:EUR", "b:EUR"}, got)
}

func TestHub_Unsubscribe(t *testing.T) {
	var h Hub[int]
	calls := 0

	unsub := h.Subscribe(func(int) { calls++ })
	h.Publish(1)
	unsub()
	unsub()
	h.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, h.Len())
}

func TestHub_UnsubscribeFromCallback(t *testing.T) {
	var h Hub[int]
	calls := 0

	var unsub func()
	unsub = h.Subscribe(func(int) {
		calls++
		unsub()
	})
	other := 0
	h.Subscribe(func(int) { other++ })

	h.Publish(1)
	h.Publish(2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}
