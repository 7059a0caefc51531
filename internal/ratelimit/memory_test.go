package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextwave678/launchit/internal/ratelimit"
	"github.com/nextwave678/launchit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(clock *fakeClock) *ratelimit.MemoryStore {
	return ratelimit.NewMemoryStore(
		ratelimit.WithClock(clock.Now),
		ratelimit.WithSweepInterval(0),
	)
}

func TestMemoryStoreCheck(t *testing.T) {
	Convey("Given a memory store with a fake clock", t, func() {
		ctx := context.Background()
		clock := newFakeClock()
		store := newStore(clock)
		defer func() { _ = store.Close() }()

		Convey("When the first call arrives for a key", func() {
			d, err := store.Check(ctx, "lead:1.2.3.4", 3, time.Minute)

			Convey("Then it opens a window with limit-1 remaining", func() {
				So(err, ShouldBeNil)
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 2)
				So(d.Limit, ShouldEqual, 3)
				So(d.ResetAt, ShouldEqual, clock.Now().Add(time.Minute))
			})
		})

		Convey("When calls reach the limit", func() {
			var last ratelimit.Decision
			for i := 1; i <= 3; i++ {
				last, _ = store.Check(ctx, "k", 3, time.Minute)
				So(last.Allowed, ShouldBeTrue)
				So(last.Remaining, ShouldEqual, 3-i)
			}
			resetAt := last.ResetAt
			clock.Advance(10 * time.Second)
			rejected, _ := store.Check(ctx, "k", 3, time.Minute)
			again, _ := store.Check(ctx, "k", 3, time.Minute)

			Convey("Then the next call is rejected without moving the window", func() {
				So(rejected.Allowed, ShouldBeFalse)
				So(rejected.Remaining, ShouldEqual, 0)
				So(rejected.ResetAt, ShouldEqual, resetAt)
				So(again.Allowed, ShouldBeFalse)
				So(again.ResetAt, ShouldEqual, resetAt)
			})
		})

		Convey("When the window has passed", func() {
			for i := 0; i < 4; i++ {
				_, _ = store.Check(ctx, "k", 3, time.Minute)
			}
			clock.Advance(time.Minute)
			d, _ := store.Check(ctx, "k", 3, time.Minute)

			Convey("Then the call starts a fresh window", func() {
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 2)
				So(d.ResetAt, ShouldEqual, clock.Now().Add(time.Minute))
			})
		})

		Convey("When one window is exactly one tick from closing", func() {
			_, _ = store.Check(ctx, "k", 1, time.Minute)
			clock.Advance(time.Minute - time.Nanosecond)
			d, _ := store.Check(ctx, "k", 1, time.Minute)

			Convey("Then it is still enforced", func() {
				So(d.Allowed, ShouldBeFalse)
			})
		})

		Convey("When different keys are used", func() {
			_, _ = store.Check(ctx, "agent:u1", 1, time.Minute)
			blocked, _ := store.Check(ctx, "agent:u1", 1, time.Minute)
			other, _ := store.Check(ctx, "agent:u2", 1, time.Minute)

			Convey("Then they never interact", func() {
				So(blocked.Allowed, ShouldBeFalse)
				So(other.Allowed, ShouldBeTrue)
				So(other.Remaining, ShouldEqual, 0)
			})
		})
	})
}

func TestMemoryStoreSweep(t *testing.T) {
	Convey("Given a store holding live and expired windows", t, func() {
		ctx := context.Background()
		clock := newFakeClock()
		store := newStore(clock)
		defer func() { _ = store.Close() }()

		_, _ = store.Check(ctx, "short", 5, time.Second)
		_, _ = store.Check(ctx, "long", 5, time.Hour)
		clock.Advance(2 * time.Second)

		Convey("When sweeping", func() {
			removed := store.Sweep()

			Convey("Then only the expired entry is removed", func() {
				So(removed, ShouldEqual, 1)
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When checking an expired key without sweeping", func() {
			d, _ := store.Check(ctx, "short", 5, time.Second)

			Convey("Then it is treated as absent", func() {
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a store with a running sweep task", t, func() {
		clock := newFakeClock()
		store := ratelimit.NewMemoryStore(
			ratelimit.WithClock(clock.Now),
			ratelimit.WithSweepInterval(5*time.Millisecond),
		)
		_, _ = store.Check(context.Background(), "k", 1, time.Second)
		clock.Advance(time.Hour)

		Convey("Then the task drops expired entries and stops on Close", func() {
			deadline := time.Now().Add(2 * time.Second)
			for store.Len() > 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(store.Len(), ShouldEqual, 0)
			So(store.Close(), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
		})
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	Convey("Given limit concurrent checks on a fresh key", t, func() {
		const limit = 50
		store := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(0))
		defer func() { _ = store.Close() }()

		var admitted atomic.Int64
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < limit*2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				d, _ := store.Check(context.Background(), "hot", limit, time.Hour)
				if d.Allowed {
					admitted.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		Convey("Then exactly limit are admitted", func() {
			So(admitted.Load(), ShouldEqual, limit)
		})
	})

	Convey("Given checks racing a sweep", t, func() {
		clock := newFakeClock()
		store := ratelimit.NewMemoryStore(
			ratelimit.WithClock(clock.Now),
			ratelimit.WithSweepInterval(time.Millisecond),
		)
		defer func() { _ = store.Close() }()

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 500; i++ {
					_, _ = store.Check(context.Background(), fmt.Sprintf("k%d", i%20), 10, time.Millisecond)
					if i%50 == 0 {
						clock.Advance(time.Millisecond)
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then the map stays consistent", func() {
			So(store.Len(), ShouldBeLessThanOrEqualTo, 20)
		})
	})
}

func TestDecisionRetryAfter(t *testing.T) {
	Convey("Given a rejected decision", t, func() {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		Convey("Then partial seconds round up", func() {
			d := ratelimit.Decision{ResetAt: now.Add(1500 * time.Millisecond)}
			So(d.RetryAfter(now), ShouldEqual, 2*time.Second)
		})

		Convey("Then a past reset still asks for one second", func() {
			d := ratelimit.Decision{ResetAt: now.Add(-time.Second)}
			So(d.RetryAfter(now), ShouldEqual, time.Second)
		})
	})
}
