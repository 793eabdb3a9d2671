package fbx

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOperator
	tokBlockStart
	tokBlockEnd
	tokEOL
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func isIdentChar(c byte) bool {
	return c >= 'A' && c <= 'z' || c >= '0' && c <= '9' || c == '-'
}

func isNumberChar(c byte) bool {
	return c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+'
}

// textParser reads the ASCII FBX syntax: "Name: attr, attr { children }".
type textParser struct {
	r   *bufio.Reader
	err error
}

func (p *textParser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *textParser) readByte() (byte, bool) {
	if p.err != nil {
		return 0, false
	}
	c, err := p.r.ReadByte()
	if err != nil {
		p.err = err
		return 0, false
	}
	return c, true
}

// readWhile consumes bytes while accept holds, leaving the first rejected byte unread.
func (p *textParser) readWhile(first byte, accept func(byte) bool) string {
	var sb strings.Builder
	sb.WriteByte(first)
	for {
		c, ok := p.readByte()
		if !ok {
			break
		}
		if !accept(c) {
			p.r.UnreadByte()
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (p *textParser) next() token {
	for {
		c, ok := p.readByte()
		if !ok {
			return token{kind: tokEOF}
		}
		switch {
		case c == ';':
			for ok && c != '\n' {
				c, ok = p.readByte()
			}
		case c == '\n':
			return token{kind: tokEOL}
		case c == '{':
			return token{tokBlockStart, "{"}
		case c == '}':
			return token{tokBlockEnd, "}"}
		case c == '*' || c == ':' || c == ',':
			return token{tokOperator, string(c)}
		case c == '"':
			var sb strings.Builder
			for c, ok = p.readByte(); ok && c != '"'; c, ok = p.readByte() {
				sb.WriteByte(c)
			}
			return token{tokString, sb.String()}
		case c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+':
			return token{tokNumber, p.readWhile(c, isNumberChar)}
		case c >= 'A' && c <= 'z':
			return token{tokIdent, p.readWhile(c, isIdentChar)}
		}
	}
}

func (p *textParser) expect(kind tokenKind) {
	if t := p.next(); t.kind != kind {
		p.fail(errors.Errorf("fbx: unexpected token %q", t.text))
	}
}

func isFloat(s string) bool {
	return strings.ContainsAny(s, ".eE")
}

// parseArray reads "*N { a: v,v,... }" after the '*'.
func (p *textParser) parseArray() *Attribute {
	t := p.next()
	size, err := strconv.Atoi(t.text)
	if err != nil {
		p.fail(errors.Errorf("fbx: invalid array size %q", t.text))
	}
	p.expect(tokBlockStart)
	for p.err == nil {
		if p.next().text == ":" {
			break
		}
	}

	var values []float64
	float := false
loop:
	for p.err == nil {
		t := p.next()
		switch t.kind {
		case tokEOL, tokOperator:
		case tokBlockEnd:
			break loop
		case tokNumber:
			v, _ := strconv.ParseFloat(t.text, 64)
			values = append(values, v)
			float = float || isFloat(t.text)
		default:
			p.fail(errors.Errorf("fbx: invalid array element %q", t.text))
		}
	}
	if len(values) != size {
		p.fail(errors.Errorf("fbx: array size %d != %d", size, len(values)))
	}
	if float {
		return &Attribute{Value: values, ArraySize: uint(size)}
	}
	ints := make([]int32, len(values))
	for i, v := range values {
		ints[i] = int32(v)
	}
	return &Attribute{Value: ints, ArraySize: uint(size)}
}

func (p *textParser) parseNumber(s string) *Attribute {
	if isFloat(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			p.fail(errors.Errorf("fbx: invalid number %q", s))
		}
		return &Attribute{Value: v}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.fail(errors.Errorf("fbx: invalid number %q", s))
	}
	return &Attribute{Value: v}
}

// parseNode reads the attributes and children of a node whose name was just read.
func (p *textParser) parseNode(name string) *Node {
	p.expect(tokOperator)
	node := &Node{Name: name}
	for p.err == nil {
		t := p.next()
		switch {
		case t.kind == tokEOL || t.kind == tokEOF:
			return node
		case t.kind == tokBlockStart:
			node.Children = p.parseNodeList()
			return node
		case t.kind == tokNumber:
			node.Attributes = append(node.Attributes, p.parseNumber(t.text))
		case t.kind == tokString:
			node.Attributes = append(node.Attributes, &Attribute{Value: t.text})
		case t.kind == tokOperator && t.text == "*":
			node.Attributes = append(node.Attributes, p.parseArray())
		}
	}
	return node
}

func (p *textParser) parseNodeList() []*Node {
	var nodes []*Node
	for p.err == nil {
		t := p.next()
		switch t.kind {
		case tokEOL:
		case tokIdent:
			nodes = append(nodes, p.parseNode(t.text))
		default:
			return nodes
		}
	}
	return nodes
}

func (p *textParser) Parse() (*Node, error) {
	root := &Node{Name: "_FBX_ROOT"}
	root.Children = p.parseNodeList()
	if p.err != nil && p.err != io.EOF {
		return nil, p.err
	}
	return root, nil
}
