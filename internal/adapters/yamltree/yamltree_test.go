package yamltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

const weekend = `---
WeekendInfo:
 TrackName: roadamerica full
 TrackID: 18
 TrackLength: 6.4374 km
 TrackPitSpeedLimit: 72.42
 WeekendOptions:
  NumStarters: 0
  Unofficial: 0
DriverInfo:
 DriverCarIdx: 0
 Drivers:
 - CarIdx: 0
   UserName: Alice: The Fast
   TeamName: #1 Racing
   CarNumber: "7"
 - CarIdx: 1
   UserName: Bob
   TeamName:
SplitTimeInfo:
 Sectors:
...
`

func TestParseKeepsOrderAndTypes(t *testing.T) {
	doc, err := Parse([]byte(weekend))
	require.NoError(t, err)

	names := make([]string, 0, doc.Len())
	for _, f := range doc.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"WeekendInfo", "DriverInfo", "SplitTimeInfo"}, names)

	wi, ok := doc.Get("WeekendInfo")
	require.True(t, ok)
	info := wi.(*domain.Record)

	name, _ := info.Get("TrackName")
	assert.Equal(t, domain.Str("roadamerica full"), name)
	id, _ := info.Get("TrackID")
	assert.Equal(t, domain.Num(18), id)
	length, _ := info.Get("TrackLength")
	assert.Equal(t, domain.Str("6.4374 km"), length)
	limit, _ := info.Get("TrackPitSpeedLimit")
	assert.Equal(t, domain.Real(72.42), limit)

	split, _ := doc.Get("SplitTimeInfo")
	sectors, _ := split.(*domain.Record).Get("Sectors")
	assert.Equal(t, domain.Absent(), sectors)
}

func TestParseFreeTextNames(t *testing.T) {
	doc, err := Parse([]byte(weekend))
	require.NoError(t, err)

	di, _ := doc.Get("DriverInfo")
	drivers, _ := di.(*domain.Record).Get("Drivers")
	list := drivers.(*domain.List)
	require.Equal(t, 2, list.Len())

	first := list.Items[0].(*domain.Record)
	user, _ := first.Get("UserName")
	assert.Equal(t, domain.Str("Alice: The Fast"), user)
	team, _ := first.Get("TeamName")
	assert.Equal(t, domain.Str("#1 Racing"), team)
	num, _ := first.Get("CarNumber")
	assert.Equal(t, domain.Str("7"), num)

	second := list.Items[1].(*domain.Record)
	team, _ = second.Get("TeamName")
	assert.Equal(t, domain.Absent(), team)
}

func TestParseEmptyAndInvalid(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())

	_, err = Parse([]byte("- a\n- b\n"))
	assert.ErrorIs(t, err, ErrNotMapping)

	_, err = Parse([]byte("a: [1, 2\n"))
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	in := " - UserName: O'Neil: Jr\n   TeamName: 'Quoted'\n   Other: a: b\n"
	want := " - UserName: 'O''Neil: Jr'\n   TeamName: 'Quoted'\n   Other: a: b\n"
	assert.Equal(t, want, string(Sanitize([]byte(in))))
}
