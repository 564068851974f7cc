package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/id"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus(nil, nil)
	a, cancelA := bus.Subscribe(4)
	b, cancelB := bus.Subscribe(4)
	defer cancelA()
	defer cancelB()
	assert.Equal(t, 2, bus.Subscribers())

	ev := bus.Emit("updater://installed", "", map[string]interface{}{"version": "1.2.0"})
	assert.True(t, id.IsValid(ev.ID))
	assert.False(t, ev.Timestamp.IsZero())

	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus(nil, nil)
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Emit("one", "", nil)
	bus.Emit("two", "", nil)

	assert.Equal(t, "one", (<-ch).Name)
	assert.Len(t, ch, 0)
}

func TestBusCancelAndClose(t *testing.T) {
	bus := NewBus(nil, nil)
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, bus.Subscribers())

	other, _ := bus.Subscribe(1)
	bus.Close()
	_, open = <-other
	assert.False(t, open)

	late, cancelLate := bus.Subscribe(1)
	defer cancelLate()
	_, open = <-late
	require.False(t, open)
}
