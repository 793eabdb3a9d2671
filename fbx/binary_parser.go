package fbx

import (
	"compress/zlib"
	"encoding/binary"
	"io"
	"log"

	"github.com/pkg/errors"
)

type positionReader struct {
	r        io.Reader
	position int64
}

func (r *positionReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	r.position += int64(n)
	return n, err
}

func (r *positionReader) SkipTo(pos int64) error {
	offset := pos - r.position
	if offset < 0 {
		return errors.Errorf("fbx: cannot rewind to %d from %d", pos, r.position)
	}
	_, err := io.CopyN(io.Discard, r, offset)
	return err
}

type binaryParser struct {
	r       *positionReader
	err     error
	version uint32
}

func (p *binaryParser) read(v interface{}) error {
	if p.err == nil {
		p.err = binary.Read(p.r, binary.LittleEndian, v)
	}
	return p.err
}

func (p *binaryParser) readUint8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *binaryParser) readInt16() int16 {
	var v int16
	p.read(&v)
	return v
}

func (p *binaryParser) readInt32() int32 {
	var v int32
	p.read(&v)
	return v
}

func (p *binaryParser) readInt64() int64 {
	var v int64
	p.read(&v)
	return v
}

func (p *binaryParser) readUint32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

// readOffset reads a node header field, which is 64-bit since FBX 7.5.
func (p *binaryParser) readOffset() uint64 {
	if p.version >= 7500 {
		var v uint64
		p.read(&v)
		return v
	}
	return uint64(p.readUint32())
}

func (p *binaryParser) readFloat() float32 {
	var v float32
	p.read(&v)
	return v
}

func (p *binaryParser) readFloat64() float64 {
	var v float64
	p.read(&v)
	return v
}

func (p *binaryParser) readString(len uint) string {
	bytes := make([]byte, len)
	p.read(bytes)
	return string(bytes)
}

func (p *binaryParser) readName() string {
	return p.readString(uint(p.readUint8()))
}

func (p *binaryParser) readArray(typ uint8) *Attribute {
	count := uint(p.readUint32())
	encoding := p.readUint32()
	sz := p.readUint32()
	var buf interface{}
	switch typ {
	case 'b':
		buf = make([]byte, count)
	case 'i':
		buf = make([]int32, count)
	case 'l':
		buf = make([]int64, count)
	case 'f':
		buf = make([]float32, count)
	case 'd':
		buf = make([]float64, count)
	}
	if p.err != nil {
		return nil
	}
	if encoding == 0 {
		p.read(buf)
	} else {
		next := p.r.position + int64(sz)
		r, err := zlib.NewReader(io.LimitReader(p.r, int64(sz)))
		if err != nil {
			p.err = err
			return nil
		}
		defer r.Close()
		if err = binary.Read(r, binary.LittleEndian, buf); err != nil && p.err == nil {
			p.err = err
		}
		if p.err == nil {
			p.err = p.r.SkipTo(next)
		}
	}
	return &Attribute{Value: buf, ArraySize: count}
}

func (p *binaryParser) readAttribute() *Attribute {
	typ := p.readUint8()

	switch typ {
	case 'C':
		return &Attribute{Value: p.readUint8()}
	case 'Y':
		return &Attribute{Value: p.readInt16()}
	case 'I':
		return &Attribute{Value: p.readInt32()}
	case 'L':
		return &Attribute{Value: p.readInt64()}
	case 'F':
		return &Attribute{Value: p.readFloat()}
	case 'D':
		return &Attribute{Value: p.readFloat64()}
	case 'S':
		return &Attribute{Value: p.readString(uint(p.readUint32()))}
	case 'R':
		buf := make([]byte, p.readUint32())
		p.read(buf)
		return &Attribute{Value: buf}
	case 'b', 'i', 'l', 'f', 'd':
		return p.readArray(typ)
	}
	if p.err == nil {
		p.err = errors.Errorf("fbx: unknown attribute type %q", typ)
	}
	return nil
}

// readNode returns nil at the null record that terminates a node list.
func (p *binaryParser) readNode() *Node {
	next := p.readOffset()
	nattr := p.readOffset()
	_ = p.readOffset() // attribute list length
	name := p.readName()
	if p.err != nil || next == 0 {
		return nil
	}

	n := &Node{Name: name}
	for i := uint64(0); i < nattr && p.err == nil; i++ {
		attr := p.readAttribute()
		if p.err != nil {
			log.Println("fbx:", name, p.err)
			return nil
		}
		n.Attributes = append(n.Attributes, attr)
	}

	for p.r.position < int64(next) && p.err == nil {
		child := p.readNode()
		if child == nil {
			break
		}
		n.Children = append(n.Children, child)
	}

	if p.err == nil {
		p.err = p.r.SkipTo(int64(next))
	}
	if p.err != nil {
		return nil
	}
	return n
}

func (p *binaryParser) Parse() (*Node, error) {
	if p.readString(uint(len(binaryMagic))) != binaryMagic {
		return nil, ErrUnknownFormat
	}
	p.r.SkipTo(23)
	p.version = p.readUint32()
	root := &Node{Name: "_FBX_ROOT"}

	for p.err == nil {
		node := p.readNode()
		if node == nil {
			break
		}
		root.Children = append(root.Children, node)
	}
	if p.err != nil && p.err != io.EOF {
		return nil, p.err
	}
	return root, nil
}
