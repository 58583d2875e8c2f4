package domain

import (
	"fmt"
	"math"
	"strconv"
)

// NodeKind identifies the shape of a session-info node.
type NodeKind uint8

const (
	KindScalar NodeKind = iota
	KindList
	KindRecord
)

func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is a sealed interface over the session-info document model. Only
// Scalar, *List and *Record implement it.
type Node interface {
	Kind() NodeKind
	sessionNode()
}

// NewDefault builds the empty node of a kind: an absent scalar, an empty
// list or a record without fields.
func NewDefault(kind NodeKind) Node {
	switch kind {
	case KindList:
		return NewList()
	case KindRecord:
		return NewRecord()
	default:
		return Absent()
	}
}

// ScalarType is the payload type held by a Scalar.
type ScalarType uint8

const (
	ScalarAbsent ScalarType = iota
	ScalarString
	ScalarInt
	ScalarFloat
)

// Scalar is a leaf value. The zero Scalar is absent.
type Scalar struct {
	Type ScalarType
	str  string
	num  int64
	flt  float64
}

func (Scalar) Kind() NodeKind { return KindScalar }
func (Scalar) sessionNode()   {}

func Absent() Scalar { return Scalar{} }

func Str(s string) Scalar { return Scalar{Type: ScalarString, str: s} }

func Num(n int64) Scalar { return Scalar{Type: ScalarInt, num: n} }

func Real(f float64) Scalar { return Scalar{Type: ScalarFloat, flt: f} }

func (s Scalar) Present() bool { return s.Type != ScalarAbsent }

// Equal compares type and payload; an int never equals a float. NaN equals
// NaN.
func (s Scalar) Equal(o Scalar) bool {
	if s.Type != o.Type {
		return false
	}
	switch s.Type {
	case ScalarString:
		return s.str == o.str
	case ScalarInt:
		return s.num == o.num
	case ScalarFloat:
		return s.flt == o.flt || (math.IsNaN(s.flt) && math.IsNaN(o.flt))
	default:
		return true
	}
}

func (s Scalar) String() string {
	switch s.Type {
	case ScalarString:
		return s.str
	case ScalarInt:
		return strconv.FormatInt(s.num, 10)
	case ScalarFloat:
		return strconv.FormatFloat(s.flt, 'G', -1, 64)
	default:
		return ""
	}
}

// List is an ordered sequence of nodes.
type List struct {
	Items []Node
}

func (*List) Kind() NodeKind { return KindList }
func (*List) sessionNode()   {}

func NewList(items ...Node) *List { return &List{Items: items} }

func (l *List) Len() int { return len(l.Items) }

// Field is a named member of a Record.
type Field struct {
	Name string
	Node Node
}

// F is shorthand for building a Field.
func F(name string, node Node) Field { return Field{Name: name, Node: node} }

// Record is an ordered set of named fields. Field order is the order in
// which fields were first set and is the order used for diffing.
type Record struct {
	fields []Field
	index  map[string]int
}

func (*Record) Kind() NodeKind { return KindRecord }
func (*Record) sessionNode()   {}

func NewRecord(fields ...Field) *Record {
	r := &Record{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		r.Set(f.Name, f.Node)
	}
	return r
}

// Get returns the node stored under name.
func (r *Record) Get(name string) (Node, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.fields[i].Node, true
}

// Set replaces the field in place or appends it.
func (r *Record) Set(name string, node Node) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Node = node
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Node: node})
}

// Fields returns the fields in order. The slice must not be modified.
func (r *Record) Fields() []Field { return r.fields }

func (r *Record) Len() int { return len(r.fields) }
