package sessioninfo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

func weekend(track domain.Node) *domain.Record {
	return domain.NewRecord(
		domain.F("WeekendInfo", domain.NewRecord(
			domain.F("TrackName", track),
			domain.F("TrackID", domain.Num(18)),
		)),
	)
}

func drivers(names ...string) *domain.Record {
	items := make([]domain.Node, len(names))
	for i, n := range names {
		items[i] = domain.NewRecord(
			domain.F("UserName", domain.Str(n)),
			domain.F("CarIdx", domain.Num(int64(i))),
		)
	}
	return domain.NewRecord(
		domain.F("DriverInfo", domain.NewRecord(
			domain.F("Drivers", domain.NewList(items...)),
		)),
	)
}

func diff(t *testing.T, d *Differ, doc *domain.Record) []domain.ChangeRecord {
	t.Helper()
	var b domain.Batch
	require.NoError(t, d.Diff(doc, &b))
	return b.Records
}

func TestTrackNameAppearsOnce(t *testing.T) {
	d := NewDiffer()

	got := diff(t, d, weekend(domain.Absent()))
	assert.Equal(t, []domain.ChangeRecord{{Path: "WeekendInfo.TrackID", Value: "18"}}, got)

	got = diff(t, d, weekend(domain.Str("Road America")))
	assert.Equal(t, []domain.ChangeRecord{{Path: "WeekendInfo.TrackName", Value: "Road America"}}, got)

	assert.Empty(t, diff(t, d, weekend(domain.Str("Road America"))))
	assert.Empty(t, diff(t, d, weekend(domain.Str("Road America"))))
}

func TestReplayingSnapshotIsIdempotent(t *testing.T) {
	d := NewDiffer()
	doc := drivers("Alice", "Bob")

	first := diff(t, d, doc)
	require.Len(t, first, 4)
	assert.Equal(t, "DriverInfo.Drivers[0].UserName", first[0].Path)
	assert.Equal(t, "DriverInfo.Drivers[1].CarIdx", first[3].Path)

	assert.Empty(t, diff(t, d, doc))

	altitude := domain.NewRecord(domain.F("WeekendInfo", domain.NewRecord(
		domain.F("TrackAltitude", domain.Real(math.NaN())),
	)))
	d = NewDiffer()
	assert.Equal(t, []domain.ChangeRecord{{Path: "WeekendInfo.TrackAltitude", Value: "NaN"}}, diff(t, d, altitude))
	assert.Empty(t, diff(t, d, altitude), "a NaN leaf is unchanged on the next pass")
	assert.Empty(t, diff(t, d, altitude))
}

func TestListHighWaterMark(t *testing.T) {
	d := NewDiffer()

	diff(t, d, drivers("Alice", "Bob", "Carol"))
	got := diff(t, d, drivers("Alice"))
	assert.Empty(t, got, "shrinking list must not emit")

	node, ok := d.Retained().Get("DriverInfo")
	require.True(t, ok)
	list, ok := node.(*domain.Record).Get("Drivers")
	require.True(t, ok)
	assert.Equal(t, 3, list.(*domain.List).Len())

	got = diff(t, d, drivers("Alice", "Bob", "Dave"))
	assert.Equal(t, []domain.ChangeRecord{{Path: "DriverInfo.Drivers[2].UserName", Value: "Dave"}}, got)
}

func TestAbsentValueKeepsRetained(t *testing.T) {
	d := NewDiffer()

	diff(t, d, weekend(domain.Str("Spa")))
	assert.Empty(t, diff(t, d, weekend(domain.Absent())))
	assert.Empty(t, diff(t, d, weekend(domain.Str("Spa"))))
	assert.Equal(t,
		[]domain.ChangeRecord{{Path: "WeekendInfo.TrackName", Value: "Monza"}},
		diff(t, d, weekend(domain.Str("Monza"))))
}

func TestScalarListElements(t *testing.T) {
	d := NewDiffer()
	doc := func(vals ...int64) *domain.Record {
		items := make([]domain.Node, len(vals))
		for i, v := range vals {
			items[i] = domain.Num(v)
		}
		return domain.NewRecord(domain.F("Laps", domain.NewList(items...)))
	}

	assert.Len(t, diff(t, d, doc(1, 2)), 2)
	assert.Equal(t,
		[]domain.ChangeRecord{{Path: "Laps[1]", Value: "3"}},
		diff(t, d, doc(1, 3)))
}

func TestShapeMismatch(t *testing.T) {
	d := NewDiffer()
	diff(t, d, weekend(domain.Str("Spa")))

	var b domain.Batch
	err := d.Diff(weekend(domain.NewRecord(domain.F("Name", domain.Str("Spa")))), &b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.Contains(t, err.Error(), "WeekendInfo.TrackName")
}

func TestNewRecordMaterializedLazily(t *testing.T) {
	d := NewDiffer()
	doc := domain.NewRecord(domain.F("SplitTimeInfo", domain.NewRecord(
		domain.F("Sectors", domain.NewList()),
	)))
	assert.Empty(t, diff(t, d, doc))

	_, ok := d.Retained().Get("SplitTimeInfo")
	assert.True(t, ok)

	assert.NoError(t, d.Diff(nil, &domain.Batch{}))

	d.Reset()
	assert.Equal(t, 0, d.Retained().Len())
}
