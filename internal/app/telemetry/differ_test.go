package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/SimRecorder/internal/adapters/memsource"
	"github.com/ghalamif/SimRecorder/internal/domain"
	"github.com/ghalamif/SimRecorder/internal/ports"
)

func connectedSource(rate int) *memsource.Source {
	src := memsource.New(rate)
	src.SetConnected(true)
	return src
}

func poll(t *testing.T, d *Differ, src ports.Source) []domain.ChangeRecord {
	t.Helper()
	var b domain.Batch
	require.NoError(t, d.Poll(src, &b))
	return b.Records
}

func TestFirstPollRecordsNonZeroElements(t *testing.T) {
	src := connectedSource(60)
	src.Set("CarIdxPaceRow", domain.Int(0), domain.Int(2), domain.Int(0))
	src.Set("PitsOpen", domain.Bool(false))

	d := NewDiffer(nil)
	got := poll(t, d, src)
	assert.Equal(t, []domain.ChangeRecord{{Path: "CarIdxPaceRow[1]", Value: "2"}}, got)
	assert.True(t, d.Captured())

	assert.Empty(t, poll(t, d, src), "unchanged snapshot must not emit")

	src.Set("PitsOpen", domain.Bool(true))
	assert.Equal(t, []domain.ChangeRecord{{Path: "PitsOpen[0]", Value: "true"}}, poll(t, d, src))
}

func TestThrottledChannelSpacing(t *testing.T) {
	src := connectedSource(60)
	src.Set("FuelLevel", domain.Float(50))

	d := NewDiffer(nil)
	var recordedAt []int
	for tick := 1; tick <= 300; tick++ {
		src.SetTickCount(tick)
		src.Set("FuelLevel", domain.Float(50-float32(tick)*0.01))
		if len(poll(t, d, src)) > 0 {
			recordedAt = append(recordedAt, tick)
		}
	}

	require.NotEmpty(t, recordedAt)
	assert.Equal(t, []int{1, 61, 121, 181, 241}, recordedAt)
	for i := 1; i < len(recordedAt); i++ {
		assert.GreaterOrEqual(t, recordedAt[i]-recordedAt[i-1], 60)
	}
}

func TestIgnoredChannelNeverRecorded(t *testing.T) {
	src := connectedSource(60)
	d := NewDiffer(nil)

	for tick := 1; tick <= 50; tick++ {
		src.SetTickCount(tick)
		src.Set("Brake", domain.Float(float32(tick)/50))
		src.Set("RPM", domain.Float(float32(tick)*100))
		assert.Empty(t, poll(t, d, src))
	}
	assert.Equal(t, Stats{Tracked: 0, Ignored: 2}, d.Stats())
}

func TestReconnectResetsCatalog(t *testing.T) {
	src := connectedSource(60)
	src.Set("FuelLevel", domain.Float(10))
	src.Set("PlayerCarTowTime", domain.Float(0))

	d := NewDiffer(nil)
	src.SetTickCount(100)
	require.Len(t, poll(t, d, src), 1)

	src.SetTickCount(101)
	src.Set("FuelLevel", domain.Float(9))
	assert.Empty(t, poll(t, d, src), "throttled inside the gate")

	src.SetConnected(false)
	assert.Empty(t, poll(t, d, src))
	assert.False(t, d.Captured())

	src.SetConnected(true)
	src.SetTickCount(102)
	got := poll(t, d, src)
	assert.Equal(t, []domain.ChangeRecord{{Path: "FuelLevel[0]", Value: "9"}}, got,
		"fresh catalog re-opens the throttle gate and forgets retained values")
}

func TestPolicyExtendsTables(t *testing.T) {
	c := NewClassifier(ports.Policy{
		Ignore:   []string{"PlayerCarTowTime"},
		Throttle: map[string]int{"FuelLevel": 2, "Skies": 15},
	})
	assert.True(t, c.Ignored("PlayerCarTowTime"))
	assert.True(t, c.Ignored("Brake"))
	assert.Equal(t, 2, c.ThrottleSeconds("FuelLevel"))
	assert.Equal(t, 15, c.ThrottleSeconds("Skies"))
	assert.Equal(t, 15, c.ThrottleSeconds("AirTemp"))
	assert.Equal(t, 0, c.ThrottleSeconds("PitsOpen"))
}

func TestShapeMismatch(t *testing.T) {
	src := connectedSource(60)
	src.DefineChannel(domain.ChannelDesc{Name: "Voltage", Type: domain.VarFloat, Count: 1})

	d := NewDiffer(nil)
	assert.Empty(t, poll(t, d, src))

	src.SetAt("Voltage", 0, domain.Int(13))
	var b domain.Batch
	err := d.Poll(src, &b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestEmptyCatalogWaits(t *testing.T) {
	src := connectedSource(60)
	d := NewDiffer(nil)

	assert.Empty(t, poll(t, d, src))
	assert.False(t, d.Captured())

	src.Set("DCLapStatus", domain.Int(1))
	assert.Len(t, poll(t, d, src), 1)
	assert.Equal(t, Stats{Tracked: 1}, d.Stats())
}

func TestVanishedChannelIsSkipped(t *testing.T) {
	src := connectedSource(60)
	src.Set("ShiftGrindRPM", domain.Float(13.5))
	src.Set("DCLapStatus", domain.Int(1))

	d := NewDiffer(nil)
	assert.Len(t, poll(t, d, src), 2)

	src.ClearChannels()
	var b domain.Batch
	require.NoError(t, d.Poll(src, &b))
	assert.Empty(t, b.Records)

	src.Set("DCLapStatus", domain.Int(2))
	assert.Equal(t, []domain.ChangeRecord{{Path: "DCLapStatus[0]", Value: "2"}}, poll(t, d, src))

	src.Set("ShiftGrindRPM", domain.Float(12))
	assert.Equal(t, []domain.ChangeRecord{{Path: "ShiftGrindRPM[0]", Value: "12"}}, poll(t, d, src))
}
