package channels_test

import (
	"testing"

	"github.com/alkime/captions/pkg/channels"
	"github.com/stretchr/testify/assert"
)

func TestSendNonBlock(t *testing.T) {
	t.Run("buffered channel with capacity", func(t *testing.T) {
		ch := make(chan []byte, 2)
		err := channels.SendNonBlock(ch, []byte{1, 2})
		assert.NoError(t, err)
		assert.Equal(t, []byte{1, 2}, <-ch)
	})

	t.Run("full buffered channel", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 1
		err := channels.SendNonBlock(ch, 42)
		assert.ErrorIs(t, err, channels.ErrChannelFull)
	})

	t.Run("unbuffered with no receiver", func(t *testing.T) {
		ch := make(chan int)
		err := channels.SendNonBlock(ch, 42)
		assert.ErrorIs(t, err, channels.ErrChannelFull)
	})

	t.Run("closed channel", func(t *testing.T) {
		ch := make(chan int, 1)
		close(ch)
		err := channels.SendNonBlock(ch, 42)
		assert.ErrorIs(t, err, channels.ErrChannelClosed)
	})
}

func TestDrain(t *testing.T) {
	t.Run("empty channel", func(t *testing.T) {
		ch := make(chan int, 4)
		assert.Equal(t, 0, channels.Drain(ch))
	})

	t.Run("buffered messages", func(t *testing.T) {
		ch := make(chan int, 4)
		ch <- 1
		ch <- 2
		ch <- 3
		assert.Equal(t, 3, channels.Drain(ch))
		assert.Len(t, ch, 0)
	})

	t.Run("closed channel stops draining", func(t *testing.T) {
		ch := make(chan int, 4)
		ch <- 1
		close(ch)
		assert.Equal(t, 1, channels.Drain(ch))
	})
}
