// Package replay plays a scripted telemetry session into the recorder.
//
// A script declares a channel catalog and a list of frames. Each frame may
// change the connection state, move the tick counter, publish a new
// session-info document and overwrite channel values:
//
//	tick_rate: 60
//	channels:
//	  - {name: FuelLevel, type: float}
//	  - {name: CarIdxLap, type: int, count: 64}
//	frames:
//	  - session_num: 0
//	    session_time: 12.5
//	    session_info: |
//	      WeekendInfo:
//	        TrackName: roadamerica full
//	    values:
//	      FuelLevel: 41.2
//	      CarIdxLap: [3, 3, 2]
//	  - tick: 61
//	    values: {FuelLevel: 41.1}
//	  - connected: false
package replay

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/SimRecorder/internal/adapters/yamltree"
	"github.com/ghalamif/SimRecorder/internal/domain"
)

const (
	ChannelSessionNum  = "SessionNum"
	ChannelSessionTime = "SessionTime"
	defaultTickRate    = 60
)

var ErrInvalidScript = errors.New("invalid replay script")

type scriptFile struct {
	TickRate int            `yaml:"tick_rate"`
	Channels []channelEntry `yaml:"channels"`
	Frames   []frameEntry   `yaml:"frames"`
}

type channelEntry struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

type frameEntry struct {
	Connected   *bool                `yaml:"connected"`
	Tick        *int                 `yaml:"tick"`
	Repeat      int                  `yaml:"repeat"`
	SessionNum  *int                 `yaml:"session_num"`
	SessionTime *float64             `yaml:"session_time"`
	SessionInfo string               `yaml:"session_info"`
	Values      map[string]yaml.Node `yaml:"values"`
}

// Script is a decoded, validated replay.
type Script struct {
	TickRate int
	Channels []domain.ChannelDesc
	Frames   []Frame
}

// Frame is one step of a script. Tick is absolute; Repeat holds the frame
// for that many additional ticks. A tick may only go backwards on a frame
// that sets the connection state.
type Frame struct {
	Connected   *bool
	Tick        int
	Repeat      int
	SessionInfo *domain.Record
	Values      []Assignment
}

// Assignment overwrites the leading elements of one channel.
type Assignment struct {
	Channel string
	Values  []domain.Value
}

func Load(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Script, error) {
	var f scriptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	s := &Script{TickRate: f.TickRate}
	if s.TickRate == 0 {
		s.TickRate = defaultTickRate
	}
	if s.TickRate < 0 {
		return nil, fmt.Errorf("%w: tick_rate must be positive", ErrInvalidScript)
	}

	types := make(map[string]domain.ChannelDesc, len(f.Channels)+2)
	for _, c := range f.Channels {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: channel without a name", ErrInvalidScript)
		}
		if _, dup := types[c.Name]; dup {
			return nil, fmt.Errorf("%w: channel %s declared twice", ErrInvalidScript, c.Name)
		}
		vt, err := domain.ParseVarType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s: %v", ErrInvalidScript, c.Name, err)
		}
		if c.Count == 0 {
			c.Count = 1
		}
		if c.Count < 0 {
			return nil, fmt.Errorf("%w: channel %s: negative count", ErrInvalidScript, c.Name)
		}
		desc := domain.ChannelDesc{Name: c.Name, Type: vt, Count: c.Count}
		types[c.Name] = desc
		s.Channels = append(s.Channels, desc)
	}
	for _, desc := range []domain.ChannelDesc{
		{Name: ChannelSessionNum, Type: domain.VarInt, Count: 1},
		{Name: ChannelSessionTime, Type: domain.VarDouble, Count: 1},
	} {
		if _, ok := types[desc.Name]; !ok {
			types[desc.Name] = desc
			s.Channels = append(s.Channels, desc)
		}
	}

	tick := 0
	for i, fe := range f.Frames {
		fr, err := compileFrame(fe, types)
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", ErrInvalidScript, i, err)
		}
		switch {
		case fe.Tick != nil:
			fr.Tick = *fe.Tick
		case i > 0:
			fr.Tick = tick + 1
		default:
			fr.Tick = 1
		}
		if i > 0 && fr.Tick < tick && fe.Connected == nil {
			return nil, fmt.Errorf("%w: frame %d: tick %d goes backwards", ErrInvalidScript, i, fr.Tick)
		}
		tick = fr.Tick + fr.Repeat
		s.Frames = append(s.Frames, fr)
	}
	return s, nil
}

func compileFrame(fe frameEntry, types map[string]domain.ChannelDesc) (Frame, error) {
	if fe.Repeat < 0 {
		return Frame{}, errors.New("negative repeat")
	}
	fr := Frame{Connected: fe.Connected, Repeat: fe.Repeat}

	if fe.SessionInfo != "" {
		doc, err := yamltree.Parse([]byte(fe.SessionInfo))
		if err != nil {
			return Frame{}, err
		}
		fr.SessionInfo = doc
	}
	if fe.SessionNum != nil {
		v := numeric(types[ChannelSessionNum].Type, float64(*fe.SessionNum))
		fr.Values = append(fr.Values, Assignment{Channel: ChannelSessionNum, Values: []domain.Value{v}})
	}
	if fe.SessionTime != nil {
		v := numeric(types[ChannelSessionTime].Type, *fe.SessionTime)
		fr.Values = append(fr.Values, Assignment{Channel: ChannelSessionTime, Values: []domain.Value{v}})
	}

	for name, node := range fe.Values {
		if (name == ChannelSessionNum && fe.SessionNum != nil) || (name == ChannelSessionTime && fe.SessionTime != nil) {
			return Frame{}, fmt.Errorf("%s set twice", name)
		}
		desc, ok := types[name]
		if !ok {
			return Frame{}, fmt.Errorf("unknown channel %s", name)
		}
		items := []*yaml.Node{&node}
		if node.Kind == yaml.SequenceNode {
			items = node.Content
		}
		if len(items) > desc.Count {
			return Frame{}, fmt.Errorf("channel %s holds %d elements, got %d", name, desc.Count, len(items))
		}
		vals := make([]domain.Value, 0, len(items))
		for j, item := range items {
			v, err := decodeValue(desc.Type, item)
			if err != nil {
				return Frame{}, fmt.Errorf("%s[%d]: %w", name, j, err)
			}
			vals = append(vals, v)
		}
		fr.Values = append(fr.Values, Assignment{Channel: name, Values: vals})
	}
	sort.Slice(fr.Values, func(a, b int) bool { return fr.Values[a].Channel < fr.Values[b].Channel })
	return fr, nil
}

func decodeValue(t domain.VarType, n *yaml.Node) (domain.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return domain.Value{}, fmt.Errorf("expected a scalar, got line %d", n.Line)
	}
	switch t {
	case domain.VarChar:
		if n.ShortTag() == "!!str" {
			if len(n.Value) != 1 {
				return domain.Value{}, fmt.Errorf("char value %q must be one byte", n.Value)
			}
			return domain.Char(n.Value[0]), nil
		}
		var c uint8
		if err := n.Decode(&c); err != nil {
			return domain.Value{}, err
		}
		return domain.Char(c), nil
	case domain.VarBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return domain.Value{}, err
		}
		return domain.Bool(b), nil
	case domain.VarInt:
		var i int32
		if err := n.Decode(&i); err != nil {
			return domain.Value{}, err
		}
		return domain.Int(i), nil
	case domain.VarBitField:
		var u uint32
		if err := n.Decode(&u); err != nil {
			return domain.Value{}, err
		}
		return domain.BitField(u), nil
	case domain.VarFloat:
		var f float32
		if err := n.Decode(&f); err != nil {
			return domain.Value{}, err
		}
		return domain.Float(f), nil
	case domain.VarDouble:
		var f float64
		if err := n.Decode(&f); err != nil {
			return domain.Value{}, err
		}
		return domain.Double(f), nil
	default:
		return domain.Value{}, fmt.Errorf("unsupported type %s", t)
	}
}

// numeric converts the session stamp fields to whatever type the script
// declared for them.
func numeric(t domain.VarType, f float64) domain.Value {
	switch t {
	case domain.VarChar:
		return domain.Char(byte(f))
	case domain.VarBool:
		return domain.Bool(f != 0)
	case domain.VarInt:
		return domain.Int(int32(f))
	case domain.VarBitField:
		return domain.BitField(uint32(f))
	case domain.VarFloat:
		return domain.Float(float32(f))
	default:
		return domain.Double(f)
	}
}
