/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ttlcache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetSetComputesOnceOnMiss(t *testing.T) {
	c := New[string, string](nil)

	var calls int32
	compute := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "clip-123", nil
	}

	v, err := c.GetSet("NEWS", time.Minute, compute)
	if err != nil || v != "clip-123" {
		t.Fatalf("unexpected result %v err=%v", v, err)
	}
	v, err = c.GetSet("NEWS", time.Minute, compute)
	if err != nil || v != "clip-123" {
		t.Fatalf("unexpected cached result %v err=%v", v, err)
	}
	if calls != 1 {
		t.Fatalf("expected compute called once, got %d", calls)
	}
}

func TestGetSetSingleFlightConcurrent(t *testing.T) {
	c := New[string, int](nil)
	var calls int32

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, _ := c.GetSet("shared", time.Minute, func() (int, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return 42, nil
			})
			results[idx] = v
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r != 42 {
			t.Fatalf("expected all callers to get 42, got %d", r)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single computation across concurrent callers, got %d", calls)
	}
}

func TestExpiryAndSweep(t *testing.T) {
	current := time.Unix(0, 0)
	c := New[string, string](func() time.Time { return current })

	c.Set("k", "v", time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected fresh entry to be present")
	}

	current = current.Add(2 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to be absent")
	}

	// The 100th write triggers a sweep that removes the expired entry from
	// the map itself, not just from Get's view of it.
	for i := 1; i < sweepEvery; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v", time.Second)
	}
	if _, present := c.items["k"]; present {
		t.Fatal("expected the sweep on the 100th write to drop the expired entry")
	}
}
