// Package yamltree turns a session-info YAML document into a domain.Record
// while keeping the key order of the source text.
package yamltree

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

var ErrNotMapping = errors.New("session info document is not a mapping")

// freeTextKeys hold user-entered names that simulators write unquoted, which
// breaks YAML when the name contains a colon, a hash or a leading quote.
var freeTextKeys = map[string]struct{}{
	"AbbrevName":      {},
	"TeamName":        {},
	"UserName":        {},
	"Initials":        {},
	"DriverSetupName": {},
	"CarScreenName":   {},
	"CarDesignStr":    {},
	"HelmetDesignStr": {},
	"SuitDesignStr":   {},
	"ClubName":        {},
	"DivisionName":    {},
}

// Parse decodes raw into a record. An empty document yields an empty record.
func Parse(raw []byte) (*domain.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(Sanitize(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode session info: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return domain.NewRecord(), nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.AliasNode {
		root = root.Alias
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: got %s", ErrNotMapping, kindName(root.Kind))
	}
	node, err := convert(root)
	if err != nil {
		return nil, err
	}
	return node.(*domain.Record), nil
}

// Sanitize quotes the values of free-text keys so that driver and team names
// survive decoding verbatim.
func Sanitize(raw []byte) []byte {
	lines := bytes.Split(raw, []byte("\n"))
	for i, line := range lines {
		s := string(line)
		trimmed := strings.TrimLeft(s, " -")
		colon := strings.Index(trimmed, ": ")
		if colon <= 0 {
			continue
		}
		if _, ok := freeTextKeys[trimmed[:colon]]; !ok {
			continue
		}
		value := strings.TrimRight(trimmed[colon+2:], "\r")
		if value == "" || quoted(value, '\'') || quoted(value, '"') {
			continue
		}
		head := s[:len(s)-len(trimmed)] + trimmed[:colon+2]
		lines[i] = []byte(head + "'" + strings.ReplaceAll(value, "'", "''") + "'")
	}
	return bytes.Join(lines, []byte("\n"))
}

func quoted(s string, q byte) bool {
	return len(s) > 1 && s[0] == q && s[len(s)-1] == q
}

func convert(n *yaml.Node) (domain.Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return convert(n.Alias)

	case yaml.MappingNode:
		rec := domain.NewRecord()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			child, err := convert(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key.Value, err)
			}
			rec.Set(key.Value, child)
		}
		return rec, nil

	case yaml.SequenceNode:
		list := domain.NewList()
		for i, item := range n.Content {
			child, err := convert(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list.Items = append(list.Items, child)
		}
		return list, nil

	case yaml.ScalarNode:
		return scalar(n)

	default:
		return nil, fmt.Errorf("unsupported yaml node %s at line %d", kindName(n.Kind), n.Line)
	}
}

func scalar(n *yaml.Node) (domain.Node, error) {
	switch n.ShortTag() {
	case "!!null":
		return domain.Absent(), nil
	case "!!int":
		var v int64
		if err := n.Decode(&v); err != nil {
			// Out of range for int64; keep the text.
			return domain.Str(n.Value), nil
		}
		return domain.Num(v), nil
	case "!!float":
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return domain.Real(v), nil
	default:
		return domain.Str(n.Value), nil
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "empty"
	}
}
