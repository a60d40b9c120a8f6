package mqtt

import "github.com/sweeney/rf433-sensor/internal/log"

// pendingMsg is a serialized message held for replay after reconnection.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while the broker is unreachable. When full
// the oldest message is discarded. The caller synchronizes access.
type outbox struct {
	msgs    []pendingMsg
	start   int
	size    int
	dropped uint64
	warned  bool
}

func newOutbox(capacity int) *outbox {
	return &outbox{msgs: make([]pendingMsg, capacity)}
}

func (o *outbox) add(m pendingMsg) {
	capacity := len(o.msgs)
	if capacity == 0 {
		o.dropped++
		return
	}
	if o.size < capacity {
		o.msgs[(o.start+o.size)%capacity] = m
		o.size++
		return
	}
	if !o.warned {
		log.Warnf("mqtt: outbox full (%d messages), discarding oldest", capacity)
		o.warned = true
	}
	o.msgs[o.start] = m
	o.start = (o.start + 1) % capacity
	o.dropped++
}

// take removes and returns every held message, oldest first.
func (o *outbox) take() []pendingMsg {
	if o.size == 0 {
		return nil
	}
	out := make([]pendingMsg, 0, o.size)
	for i := 0; i < o.size; i++ {
		out = append(out, o.msgs[(o.start+i)%len(o.msgs)])
	}
	o.start, o.size, o.warned = 0, 0, false
	return out
}

func (o *outbox) len() int {
	return o.size
}
