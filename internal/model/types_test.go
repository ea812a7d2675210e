package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00", NewTimeOfDay(9, 0), false},
		{"00:00", NewTimeOfDay(0, 0), false},
		{"23:59", NewTimeOfDay(23, 59), false},
		{"14:30:00", NewTimeOfDay(14, 30), false},
		{"25:00", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	data, err := json.Marshal(NewTimeOfDay(9, 30))
	require.NoError(t, err)
	assert.Equal(t, `"09:30"`, string(data))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"17:45"`), &tod))
	assert.Equal(t, NewTimeOfDay(17, 45), tod)

	assert.Error(t, json.Unmarshal([]byte(`"late"`), &tod))
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 8, 15, 0, 0, time.UTC)))
	assert.Equal(t, NewTimeOfDay(8, 15), tod)

	require.NoError(t, tod.Scan([]byte("12:00:00")))
	assert.Equal(t, NewTimeOfDay(12, 0), tod)

	require.NoError(t, tod.Scan("16:30:00"))
	assert.Equal(t, NewTimeOfDay(16, 30), tod)

	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDayAddAndBefore(t *testing.T) {
	start := NewTimeOfDay(9, 0)
	assert.Equal(t, NewTimeOfDay(9, 30), start.Add(30))
	assert.True(t, start.Before(start.Add(1)))
	assert.False(t, start.Before(start))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2026-03-02", d.String())

	_, err = ParseDate("02/03/2026")
	assert.Error(t, err)
}

func TestDateAt(t *testing.T) {
	d := NewDate(2026, time.March, 2)
	at := d.At(NewTimeOfDay(9, 30), time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC), at)
}

func TestDateJSON(t *testing.T) {
	data, err := json.Marshal(NewDate(2026, time.March, 2))
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-02"`, string(data))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-12-31"`), &d))
	assert.Equal(t, NewDate(2026, time.December, 31), d)
}
