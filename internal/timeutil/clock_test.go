package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	if now.Before(before) {
		t.Errorf("Now() = %v, expected >= %v", now, before)
	}
	if d := clock.Since(now.Add(-time.Second)); d < time.Second {
		t.Errorf("Since() = %v, expected >= 1s", d)
	}

	ticker := clock.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Error("ticker did not fire")
	}
}

func TestMockClock_Advance(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.Advance(90 * time.Second)

	if got := clock.Now(); !got.Equal(epoch.Add(90 * time.Second)) {
		t.Errorf("Now() = %v", got)
	}
	if got := clock.Since(epoch); got != 90*time.Second {
		t.Errorf("Since() = %v, want 1m30s", got)
	}
}

func TestMockClock_Sleep(t *testing.T) {
	clock := NewMockClock(epoch)
	clock.Sleep(100 * time.Millisecond)
	clock.Sleep(200 * time.Millisecond)

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 100*time.Millisecond || sleeps[1] != 200*time.Millisecond {
		t.Errorf("Sleeps() = %v", sleeps)
	}
	if got := clock.Since(epoch); got != 300*time.Millisecond {
		t.Errorf("sleeping should advance the clock, Since() = %v", got)
	}
}

func TestMockClock_Ticker(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Minute)

	select {
	case <-ticker.C():
		t.Fatal("ticker fired too early")
	default:
	}

	clock.Advance(time.Minute)
	select {
	case got := <-ticker.C():
		if !got.Equal(epoch.Add(time.Minute)) {
			t.Errorf("tick at %v", got)
		}
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	clock.Advance(30 * time.Second)
	select {
	case <-ticker.C():
		t.Error("ticker fired before the second interval")
	default:
	}
}

func TestMockClock_TickerStop(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Second).(*MockTicker)
	ticker.Stop()
	clock.Advance(5 * time.Second)

	select {
	case <-ticker.C():
		t.Error("stopped ticker should not tick")
	default:
	}
	if !ticker.Stopped() {
		t.Error("Stopped() = false after Stop")
	}
	if len(clock.Tickers()) != 1 {
		t.Errorf("Tickers() = %d, want 1", len(clock.Tickers()))
	}
}

func TestMockTicker_Trigger(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Hour).(*MockTicker)
	ticker.Trigger(epoch)
	ticker.Trigger(epoch.Add(time.Second))

	select {
	case got := <-ticker.C():
		if !got.Equal(epoch) {
			t.Errorf("got %v, want %v", got, epoch)
		}
	default:
		t.Fatal("Trigger did not send tick")
	}
	select {
	case <-ticker.C():
		t.Error("second tick should have been dropped")
	default:
	}
}

func TestMockTicker_Reset(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Second).(*MockTicker)
	ticker.Stop()

	clock.Advance(10 * time.Second)
	ticker.Reset(time.Minute)
	if ticker.Stopped() {
		t.Error("ticker should run again after Reset")
	}

	clock.Advance(59 * time.Second)
	select {
	case <-ticker.C():
		t.Fatal("reset ticker fired early")
	default:
	}
	clock.Advance(time.Second)
	select {
	case <-ticker.C():
	default:
		t.Error("reset ticker did not fire after the new period")
	}
}
