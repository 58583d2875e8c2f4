package simrecorder

import (
	"github.com/ghalamif/SimRecorder/internal/adapters/memsource"
	"github.com/ghalamif/SimRecorder/internal/adapters/yamltree"
	"github.com/ghalamif/SimRecorder/internal/domain"
)

// MemorySource is a mutable in-process Source for callers that bridge their
// own simulator SDK. Attach it WithSource and signal Runtime.Recorder after
// each update.
type MemorySource = memsource.Source

func NewMemorySource(tickRate int) *MemorySource {
	return memsource.New(tickRate)
}

// ParseSessionInfo converts a session-info YAML document into the tree the
// session loop diffs. Free-text driver and team names are quoted first.
func ParseSessionInfo(raw []byte) (*Record, error) {
	return yamltree.Parse(raw)
}

// Channel value constructors.
var (
	CharValue     = domain.Char
	BoolValue     = domain.Bool
	IntValue      = domain.Int
	BitFieldValue = domain.BitField
	FloatValue    = domain.Float
	DoubleValue   = domain.Double
)
