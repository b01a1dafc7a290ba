package crawl

import (
	"errors"
	"testing"
	"time"
)

func TestComputeWindow_CurrentMonth(t *testing.T) {
	now := time.Date(2024, time.August, 17, 15, 4, 5, 0, time.UTC)

	for _, months := range []int{0, 1} {
		window, err := ComputeWindow(now, months)
		if err != nil {
			t.Fatalf("ComputeWindow(%d) returned error: %v", months, err)
		}

		expected := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
		if !window.Earliest.Equal(expected) || !window.Latest.Equal(expected) {
			t.Errorf("ComputeWindow(%d) = %v..%v, expected single month %v", months, window.Earliest, window.Latest, expected)
		}
	}
}

func TestComputeWindow_SeveralMonths(t *testing.T) {
	now := time.Date(2024, time.August, 31, 23, 59, 0, 0, time.UTC)

	window, err := ComputeWindow(now, 3)
	if err != nil {
		t.Fatal(err)
	}

	if expected := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC); !window.Earliest.Equal(expected) {
		t.Errorf("Expected earliest %v, got %v", expected, window.Earliest)
	}
	if expected := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC); !window.Latest.Equal(expected) {
		t.Errorf("Expected latest %v, got %v", expected, window.Latest)
	}
}

func TestComputeWindow_YearRollover(t *testing.T) {
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	window, err := ComputeWindow(now, 2)
	if err != nil {
		t.Fatal(err)
	}

	if window.Earliest.Year() != 2024 || window.Earliest.Month() != time.December {
		t.Errorf("Expected earliest in December 2024, got %v", window.Earliest)
	}

	window, err = ComputeWindow(now, 14)
	if err != nil {
		t.Fatal(err)
	}
	if expected := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC); !window.Earliest.Equal(expected) {
		t.Errorf("Expected earliest %v for 14 months, got %v", expected, window.Earliest)
	}
}

func TestComputeWindow_Properties(t *testing.T) {
	now := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

	for months := 0; months <= 36; months++ {
		window, err := ComputeWindow(now, months)
		if err != nil {
			t.Fatalf("ComputeWindow(%d) returned error: %v", months, err)
		}
		if window.Earliest.After(window.Latest) {
			t.Errorf("ComputeWindow(%d): earliest %v after latest %v", months, window.Earliest, window.Latest)
		}
		if window.Earliest.Day() != 1 || window.Latest.Day() != 1 {
			t.Errorf("ComputeWindow(%d): expected day 1, got %v and %v", months, window.Earliest, window.Latest)
		}
	}
}

func TestComputeWindow_Negative(t *testing.T) {
	_, err := ComputeWindow(time.Now(), -1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestComputeWindow_UsesLocalWallClock(t *testing.T) {
	newYork := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2024, time.August, 31, 22, 0, 0, 0, newYork)

	window, err := ComputeWindow(now, 1)
	if err != nil {
		t.Fatal(err)
	}

	expected := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	if !window.Latest.Equal(expected) || !window.Earliest.Equal(expected) {
		t.Errorf("Expected August window for a late local evening, got %v..%v", window.Earliest, window.Latest)
	}
}

func TestShouldStop(t *testing.T) {
	earliest := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	if ShouldStop(earliest, earliest) {
		t.Error("Boundary date must not stop the crawl")
	}
	if ShouldStop(earliest.AddDate(0, 0, 1), earliest) {
		t.Error("Later date must not stop the crawl")
	}
	if !ShouldStop(earliest.AddDate(0, 0, -1), earliest) {
		t.Error("Earlier date must stop the crawl")
	}
}
