package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_OnlyLastCallRuns(t *testing.T) {
	d := New(30 * time.Millisecond)
	var mu sync.Mutex
	var got []int
	done := make(chan struct{}, 5)

	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			done <- struct{}{}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("expected only the last call, got %v", got)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	if !d.Pending() {
		t.Error("expected pending call")
	}
	if !d.Cancel() {
		t.Error("Cancel should report a dropped call")
	}
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("canceled call ran %d times", calls.Load())
	}
	if d.Cancel() {
		t.Error("second Cancel should report nothing pending")
	}
}

func TestDebouncer_Flush(t *testing.T) {
	d := New(time.Hour)
	ran := false
	d.Trigger(func() { ran = true })
	if !d.Flush() || !ran {
		t.Error("Flush should run the pending call synchronously")
	}
	if d.Flush() {
		t.Error("nothing should be pending after Flush")
	}
}

func TestGroup_KeysAreIndependent(t *testing.T) {
	g := NewGroup(20 * time.Millisecond)
	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	wg.Add(2)
	record := func(key string) func() {
		return func() {
			mu.Lock()
			counts[key]++
			mu.Unlock()
			wg.Done()
		}
	}

	g.Trigger("a.json", func() { t.Error("replaced call ran") })
	g.Trigger("a.json", record("a.json"))
	g.Trigger("b.json", record("b.json"))
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}

	waitTimeout(t, &wg)
	mu.Lock()
	defer mu.Unlock()
	if counts["a.json"] != 1 || counts["b.json"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestGroup_Cancel(t *testing.T) {
	g := NewGroup(20 * time.Millisecond)
	var calls atomic.Int32
	g.Trigger("x", func() { calls.Add(1) })
	g.Trigger("y", func() { calls.Add(1) })
	if !g.Cancel("x") {
		t.Error("expected x to be pending")
	}
	g.CancelAll()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("canceled calls ran %d times", calls.Load())
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d after CancelAll", g.Len())
	}
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced calls")
	}
}
