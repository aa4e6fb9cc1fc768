package avito

import (
	"testing"
	"time"
)

func TestParseRelativeDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		phrase string
		want   time.Time
		ok     bool
	}{
		{"только что", now, true},
		{"Только что", now, true},
		{"сегодня в 14:30", time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC), true},
		{"Сегодня в 09:05", time.Date(2024, 1, 1, 9, 5, 0, 0, time.UTC), true},
		{"вчера в 23:59", time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), true},
		{"5 минут назад", time.Date(2024, 1, 1, 11, 55, 0, 0, time.UTC), true},
		{"1 минуту назад", time.Date(2024, 1, 1, 11, 59, 0, 0, time.UTC), true},
		{"2 часа назад", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), true},
		{"1 час назад", time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), true},
		{"3 дня назад", time.Date(2023, 12, 29, 12, 0, 0, 0, time.UTC), true},
		{"1 день назад", time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC), true},
		{"10 дней назад", time.Date(2023, 12, 22, 12, 0, 0, 0, time.UTC), true},

		{"", time.Time{}, false},
		{"12 января", time.Time{}, false},
		{"сегодня", time.Time{}, false},
		{"сегодня в 25:00", time.Time{}, false},
		{"сегодня в 12:60", time.Time{}, false},
		{"сегодня в xx:yy", time.Time{}, false},
		{"x минут назад", time.Time{}, false},
		{"5 недель назад", time.Time{}, false},
		{"yesterday at 10:00", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseRelativeDate(tt.phrase, now)
		if ok != tt.ok {
			t.Errorf("ParseRelativeDate(%q) ok = %v; want %v", tt.phrase, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseRelativeDate(%q) = %v; want %v", tt.phrase, got, tt.want)
		}
	}
}

func TestParseRelativeDateKeepsLocation(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, loc)

	got, ok := ParseRelativeDate("вчера в 10:15", now)
	if !ok {
		t.Fatal("expected phrase to parse")
	}
	want := time.Date(2024, 6, 14, 10, 15, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("got %v; want %v", got, want)
	}
}
