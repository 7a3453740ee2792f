// Package channel provides generic channel interfaces for handing work
// from producer goroutines to a single consumer.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	// TryReceive returns the next value without blocking.
	TryReceive() (T, bool)
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	Send(T)
	// TrySend reports false instead of blocking when the channel is full.
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Cap() int
	Close()
}

// New creates a buffered channel with the given size. Sizes below one
// are raised to one so TrySend can ever succeed without a waiting reader.
func New[T any](size int) Channel[T] {
	if size < 1 {
		size = 1
	}
	return NewBuffered[T](size)
}
