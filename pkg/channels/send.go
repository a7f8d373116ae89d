package channels

// SendNonBlock attempts to send a message without blocking.
// Returns ErrChannelFull if nobody can take the message right now and
// ErrChannelClosed if the channel has already been closed.
func SendNonBlock[T any](ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

// Drain discards everything buffered in ch until it is empty or closed and
// returns how many messages were thrown away.
func Drain[T any](ch <-chan T) int {
	n := 0

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
