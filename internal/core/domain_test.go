package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.Error(t, err, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2018-01-31")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2018, 1, 31), d)
	assert.Equal(t, "2018-01-31", d.String())

	_, err = ParseDate("31/01/2018")
	assert.ErrorIs(t, err, ErrInvalidDate)

	assert.Equal(t, "", Date{}.String())
}

func TestDayOfTruncatesTime(t *testing.T) {
	ts := time.Date(2017, 10, 2, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, NewDate(2017, 10, 2), DayOf(ts))
	assert.Equal(t, NewDate(2017, 10, 3), DayOf(ts).AddDays(1))
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: NewDate(2018, 1, 1), End: NewDate(2018, 1, 31)}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"start midnight", time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"end day evening", time.Date(2018, 1, 31, 22, 15, 0, 0, time.UTC), true},
		{"day after end", time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"day before start", time.Date(2017, 12, 31, 23, 59, 59, 0, time.UTC), false},
		{"absent timestamp", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.at))
		})
	}
}

func TestDateRangeEmptyAndDays(t *testing.T) {
	r := DateRange{Start: NewDate(2018, 1, 1), End: NewDate(2018, 1, 31)}
	assert.False(t, r.IsEmpty())
	assert.Equal(t, 31, r.Days())
	assert.NoError(t, r.Validate())

	inverted := DateRange{Start: NewDate(2018, 2, 1), End: NewDate(2018, 1, 1)}
	assert.True(t, inverted.IsEmpty())
	assert.Equal(t, 0, inverted.Days())
	assert.NoError(t, inverted.Validate())
	assert.False(t, inverted.Contains(time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC)))

	assert.ErrorIs(t, DateRange{}.Validate(), ErrInvalidRange)
	assert.True(t, DateRange{}.IsEmpty())
}

func TestOrderApproval(t *testing.T) {
	o := Order{ApprovedAt: time.Date(2018, 3, 4, 12, 0, 0, 0, time.UTC)}
	assert.True(t, o.HasApproval())
	assert.Equal(t, NewDate(2018, 3, 4), o.ApprovalDay())
	assert.False(t, Order{}.HasApproval())
}
