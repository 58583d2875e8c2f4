// Package sessioninfo diffs successive session-info documents against a
// retained mirror and reports every leaf whose value changed.
package sessioninfo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

// ErrShapeMismatch is returned when a present node changes kind between
// polls, e.g. a scalar field that turns into a record.
var ErrShapeMismatch = errors.New("session info shape mismatch")

// Differ owns the retained mirror of the session-info tree. It is not safe
// for concurrent use; one recorder loop owns it.
type Differ struct {
	retained *domain.Record
}

func NewDiffer() *Differ {
	return &Differ{retained: domain.NewRecord()}
}

// Retained exposes the mirror for inspection.
func (d *Differ) Retained() *domain.Record { return d.retained }

// Reset drops the mirror so the next Diff records every present leaf.
func (d *Differ) Reset() {
	d.retained = domain.NewRecord()
}

// Diff walks current depth-first in field order and appends a record to b
// for every present scalar that differs from the mirror. A nil document is
// a no-op.
func (d *Differ) Diff(current *domain.Record, b *domain.Batch) error {
	if current == nil {
		return nil
	}
	return diffRecord("", d.retained, current, b)
}

func diffRecord(prefix string, retained, current *domain.Record, b *domain.Batch) error {
	for _, f := range current.Fields() {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		old, _ := retained.Get(f.Name)
		updated, err := diffNode(path, old, f.Node, b)
		if err != nil {
			return err
		}
		if updated != nil {
			retained.Set(f.Name, updated)
		}
	}
	return nil
}

// diffNode returns the retained node to store for path, or nil when nothing
// has been observed there yet.
func diffNode(path string, retained, current domain.Node, b *domain.Batch) (domain.Node, error) {
	if current == nil {
		return retained, nil
	}
	if isAbsent(retained) {
		if s, ok := current.(domain.Scalar); ok && !s.Present() {
			return retained, nil
		}
		retained = domain.NewDefault(current.Kind())
	}
	if retained.Kind() != current.Kind() {
		if s, ok := current.(domain.Scalar); ok && !s.Present() {
			return retained, nil
		}
		return nil, fmt.Errorf("%w at %s: retained %s, got %s", ErrShapeMismatch, path, retained.Kind(), current.Kind())
	}

	switch cur := current.(type) {
	case domain.Scalar:
		old := retained.(domain.Scalar)
		if cur.Present() && !cur.Equal(old) {
			b.Add(path, cur.String())
			return cur, nil
		}
		return old, nil

	case *domain.List:
		list := retained.(*domain.List)
		for i, item := range cur.Items {
			if item == nil {
				continue
			}
			for len(list.Items) <= i {
				list.Items = append(list.Items, domain.Absent())
			}
			updated, err := diffNode(path+"["+strconv.Itoa(i)+"]", list.Items[i], item, b)
			if err != nil {
				return nil, err
			}
			if updated != nil {
				list.Items[i] = updated
			}
		}
		return list, nil

	case *domain.Record:
		rec := retained.(*domain.Record)
		if err := diffRecord(path, rec, cur, b); err != nil {
			return nil, err
		}
		return rec, nil

	default:
		return nil, fmt.Errorf("%w at %s: unsupported node %T", ErrShapeMismatch, path, current)
	}
}

func isAbsent(n domain.Node) bool {
	if n == nil {
		return true
	}
	s, ok := n.(domain.Scalar)
	return ok && !s.Present()
}
