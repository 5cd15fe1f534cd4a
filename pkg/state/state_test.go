package state

import (
	"sync"
	"testing"
)

func TestHolderDefaults(t *testing.T) {
	h := NewHolder(Idle)
	if !h.Is(Idle) {
		t.Errorf("initial state = %v, want Idle", h.Get())
	}
}

func TestHolderSetGet(t *testing.T) {
	h := NewHolder(Idle)
	h.Set(Homing)
	if h.Get() != Homing {
		t.Errorf("state = %v, want Homing", h.Get())
	}
	if h.Is(Idle) {
		t.Error("Is(Idle) should be false after Set(Homing)")
	}
}

func TestHolderConcurrentWrites(t *testing.T) {
	h := NewHolder(Idle)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				h.Set(Alarm)
				_ = h.Get()
			}
		}()
	}
	wg.Wait()
	if h.Get() != Alarm {
		t.Errorf("state = %v, want Alarm", h.Get())
	}
}

func TestStateNames(t *testing.T) {
	if Homing.String() != "Home" {
		t.Errorf("Homing.String() = %q", Homing.String())
	}
	if Cycle.String() != "Run" {
		t.Errorf("Cycle.String() = %q", Cycle.String())
	}
	if State(99).String() != "<invalid>" {
		t.Errorf("invalid state String() = %q", State(99).String())
	}
}
