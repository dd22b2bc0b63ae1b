// Package transport provides peers for the SPI controller's byte exchange.
//
// Exchanges cannot fail from the controller's point of view. Adapters backed
// by real I/O log a failed exchange and answer with the idle byte instead.
package transport

import "sync"

// IdleByte is returned when the peer cannot produce a reply.
const IdleByte byte = 0xFF

// Echo answers every byte with the byte itself, like MOSI wired to MISO.
type Echo struct{}

// Exchange returns tx.
func (Echo) Exchange(tx byte) byte {
	return tx
}

// Constant answers every byte with the same value.
type Constant byte

// Exchange returns c.
func (c Constant) Exchange(byte) byte {
	return byte(c)
}

// Queue answers with queued replies in order, then with IdleByte. It records
// every byte it is sent.
type Queue struct {
	mu      sync.Mutex
	replies []byte
	sent    []byte
}

// NewQueue creates a queue holding the given replies.
func NewQueue(replies ...byte) *Queue {
	return &Queue{replies: append([]byte(nil), replies...)}
}

// Push appends replies.
func (q *Queue) Push(replies ...byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.replies = append(q.replies, replies...)
}

// Sent returns every byte exchanged so far.
func (q *Queue) Sent() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]byte(nil), q.sent...)
}

// Pending is the number of replies not yet used.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.replies)
}

// Exchange records tx and returns the next reply.
func (q *Queue) Exchange(tx byte) byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sent = append(q.sent, tx)
	if len(q.replies) == 0 {
		return IdleByte
	}

	rx := q.replies[0]
	q.replies = q.replies[1:]
	return rx
}
