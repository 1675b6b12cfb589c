package dates

import (
	"testing"
	"time"

	"github.com/mrlokans/kindle-sync/internal/regions"
)

func TestParse_GlobalWeekdayFormat(t *testing.T) {
	got := Parse("Sunday October 24, 2021", regions.Global)
	if got == nil {
		t.Fatal("expected a parsed date, got nil")
	}
	if got.Year() != 2021 || got.Month() != time.October || got.Day() != 24 {
		t.Errorf("parsed %v, want October 24, 2021", got)
	}
}

func TestParse_JapanFormat(t *testing.T) {
	got := Parse("2021年11月15日 月曜日", regions.Japan)
	if got == nil {
		t.Fatal("expected a parsed date, got nil")
	}
	if got.Year() != 2021 || got.Month() != time.November || got.Day() != 15 {
		t.Errorf("parsed %v, want November 15, 2021", got)
	}
}

func TestParse_JapanWithoutWeekday(t *testing.T) {
	got := Parse("2022年1月3日", regions.Japan)
	if got == nil {
		t.Fatal("expected a parsed date, got nil")
	}
	if got.Year() != 2022 || got.Month() != time.January || got.Day() != 3 {
		t.Errorf("parsed %v, want January 3, 2022", got)
	}
}

func TestParse_SpainDeInfix(t *testing.T) {
	got := Parse("24 de October de 2021", regions.Spain)
	if got == nil {
		t.Fatal("expected a parsed date, got nil")
	}
	if got.Year() != 2021 || got.Month() != time.October || got.Day() != 24 {
		t.Errorf("parsed %v, want October 24, 2021", got)
	}
}

func TestParse_GermanyDottedDay(t *testing.T) {
	got := Parse("15. March 2022", regions.Germany)
	if got == nil {
		t.Fatal("expected a parsed date, got nil")
	}
	if got.Day() != 15 || got.Month() != time.March {
		t.Errorf("parsed %v, want March 15, 2022", got)
	}
}

func TestParse_ISOFallback(t *testing.T) {
	for _, region := range regions.All() {
		if got := Parse("2023-06-30", region); got == nil {
			t.Errorf("region %q: ISO 8601 fallback failed", region)
		}
	}
}

func TestParse_GarbageReturnsNil(t *testing.T) {
	for _, region := range regions.All() {
		if got := Parse("not a date", region); got != nil {
			t.Errorf("region %q: Parse(\"not a date\") = %v, want nil", region, got)
		}
	}
}

func TestParse_EmptyAndWhitespace(t *testing.T) {
	if Parse("", regions.Global) != nil {
		t.Error("empty input should return nil")
	}
	if Parse("   \t ", regions.Global) != nil {
		t.Error("whitespace input should return nil")
	}
}
