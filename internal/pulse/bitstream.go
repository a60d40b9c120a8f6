package pulse

import "fmt"

// Cursor walks a capture. Units may start at any index before the limit, but
// a pattern is allowed to read past the limit up to the end of the capture.
type Cursor struct {
	pulses []uint32
	pos    int
	limit  int
}

// NewCursor returns a cursor over pulses starting at start. Units must begin
// before limit.
func NewCursor(pulses []uint32, start, limit int) *Cursor {
	if limit > len(pulses) {
		limit = len(pulses)
	}
	return &Cursor{pulses: pulses, pos: start, limit: limit}
}

// Pos returns the index of the next unclassified slot.
func (c *Cursor) Pos() int {
	return c.pos
}

// Done reports whether no further unit may start.
func (c *Cursor) Done() bool {
	return c.pos >= c.limit
}

func (c *Cursor) pair() (mark, space uint32, ok bool) {
	if c.pos+1 >= len(c.pulses) || c.Done() {
		return 0, 0, false
	}
	return c.pulses[c.pos], c.pulses[c.pos+1], true
}

func (c *Cursor) advance(n int) {
	c.pos += n
}

// Frame is a bit sequence packed MSB-first into bytes. When Bits is not a
// multiple of eight the last byte holds the remaining bits right-aligned.
type Frame struct {
	Bytes []byte
	Bits  int
}

// Uint32 returns the whole frame as one integer. Frames longer than 32 bits
// keep only their last 32 bits.
func (f Frame) Uint32() uint32 {
	var v uint32
	for i, b := range f.Bytes {
		w := 8
		if i == len(f.Bytes)-1 && f.Bits%8 != 0 {
			w = f.Bits % 8
		}
		v = v<<w | uint32(b)
	}
	return v
}

type packer struct {
	f    Frame
	cell byte
}

func newPacker(bits int) *packer {
	return &packer{f: Frame{Bytes: make([]byte, 0, (bits+7)/8)}}
}

func (p *packer) push(b Bit) {
	p.cell = p.cell<<1 | byte(b)
	p.f.Bits++
	if p.f.Bits%8 == 0 {
		p.f.Bytes = append(p.f.Bytes, p.cell)
		p.cell = 0
	}
}

func (p *packer) frame() Frame {
	if p.f.Bits%8 != 0 {
		p.f.Bytes = append(p.f.Bytes, p.cell)
		p.cell = 0
	}
	return p.f
}

// AssembleN reads exactly n bits.
func AssembleN(cur *Cursor, coding Coding, n int) (Frame, error) {
	p := newPacker(n)
	for i := 0; i < n; i++ {
		at := cur.Pos()
		b, err := coding.Next(cur)
		if err != nil {
			return Frame{}, fmt.Errorf("bit %d at slot %d: %w", i, at, err)
		}
		p.push(b)
	}
	return p.frame(), nil
}

// AssembleAll reads bits until the cursor is exhausted and requires exactly
// want of them.
func AssembleAll(cur *Cursor, coding Coding, want int) (Frame, error) {
	p := newPacker(want)
	for !cur.Done() {
		if p.f.Bits == want {
			return Frame{}, fmt.Errorf("%w: more than %d bits", ErrFrameLength, want)
		}
		at := cur.Pos()
		b, err := coding.Next(cur)
		if err != nil {
			return Frame{}, fmt.Errorf("bit %d at slot %d: %w", p.f.Bits, at, err)
		}
		p.push(b)
	}
	if p.f.Bits != want {
		return Frame{}, fmt.Errorf("%w: got %d bits, want %d", ErrFrameLength, p.f.Bits, want)
	}
	return p.frame(), nil
}
