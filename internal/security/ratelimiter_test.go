package security

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestUnlistedCategoriesAlwaysAllowed(t *testing.T) {
	rl := NewDefaultRateLimiter()
	for i := 0; i < 5000; i++ {
		rl.Record(CategoryRead)
		rl.Record(Category("something-else"))
	}
	if !rl.Allow(CategoryRead) {
		t.Error("read should be unlimited")
	}
	if !rl.Allow(Category("something-else")) {
		t.Error("unknown categories should be unlimited")
	}
	if d := rl.RetryAfter(CategoryRead); d != 0 {
		t.Errorf("RetryAfter(read) = %v, want 0", d)
	}
}

func TestTweetQuotaBoundary(t *testing.T) {
	clock := newFakeClock()
	rl := NewDefaultRateLimiter()
	rl.SetClock(clock.Now)

	for n := 0; n < 300; n++ {
		if !rl.Allow(CategoryTweet) {
			t.Fatalf("Allow(tweet) = false after %d records, want true", n)
		}
		rl.Record(CategoryTweet)
		clock.Advance(time.Second)
	}
	if rl.Allow(CategoryTweet) {
		t.Fatal("Allow(tweet) = true after 300 records, want false")
	}
	if rl.Allow(CategoryDM) != true {
		t.Fatal("tweet quota must not affect dm")
	}
}

func TestWindowExpiry(t *testing.T) {
	clock := newFakeClock()
	rl := NewDefaultRateLimiter()
	rl.SetClock(clock.Now)

	for n := 0; n < 300; n++ {
		rl.Record(CategoryTweet)
	}
	if rl.Allow(CategoryTweet) {
		t.Fatal("expected quota to be exhausted")
	}

	wait := rl.RetryAfter(CategoryTweet)
	if wait != 15*time.Minute {
		t.Fatalf("RetryAfter = %v, want 15m", wait)
	}

	clock.Advance(15*time.Minute - time.Second)
	if rl.Allow(CategoryTweet) {
		t.Fatal("still inside window, expected false")
	}

	clock.Advance(time.Second)
	if !rl.Allow(CategoryTweet) {
		t.Fatal("Allow(tweet) = false after window passed, want true")
	}
	if got := rl.Count(CategoryTweet); got != 0 {
		t.Errorf("Count after expiry = %d, want 0", got)
	}
}

func TestDMQuota(t *testing.T) {
	rl := NewRateLimiter(time.Minute, map[Category]int{CategoryDM: 2})
	rl.Record(CategoryDM)
	if !rl.Allow(CategoryDM) {
		t.Fatal("1 < 2 should be allowed")
	}
	rl.Record(CategoryDM)
	if rl.Allow(CategoryDM) {
		t.Fatal("2 >= 2 should be refused")
	}
}

func TestAllowDoesNotRecord(t *testing.T) {
	rl := NewRateLimiter(time.Minute, map[Category]int{CategoryTweet: 1})
	for i := 0; i < 10; i++ {
		if !rl.Allow(CategoryTweet) {
			t.Fatal("Allow must not consume quota")
		}
	}
}

func TestRateLimiterConcurrentRecord(t *testing.T) {
	rl := NewRateLimiter(time.Hour, map[Category]int{CategoryTweet: 10000})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				rl.Allow(CategoryTweet)
				rl.Record(CategoryTweet)
			}
		}()
	}
	wg.Wait()
	if got := rl.Count(CategoryTweet); got != 1000 {
		t.Errorf("Count = %d, want 1000 (lost updates)", got)
	}
}

func TestBruteForceProtector(t *testing.T) {
	clock := newFakeClock()
	bf := NewBruteForceProtector(3, time.Minute)
	defer bf.Close()
	bf.SetClock(clock.Now)

	for i := 1; i <= 3; i++ {
		if !bf.Check("alice") {
			t.Fatalf("blocked too early at attempt %d", i)
		}
		if got := bf.RecordFailure("alice"); got != i {
			t.Fatalf("RecordFailure = %d, want %d", got, i)
		}
	}
	if bf.Check("alice") {
		t.Fatal("expected block after 3 failures")
	}
	if !bf.Check("bob") {
		t.Fatal("other keys must be unaffected")
	}

	clock.Advance(time.Minute)
	if !bf.Check("alice") {
		t.Fatal("block should expire")
	}

	bf.RecordFailure("alice")
	bf.RecordSuccess("alice")
	if !bf.Check("alice") {
		t.Fatal("success should reset")
	}
}

func TestConnectionLimiter(t *testing.T) {
	cl := NewConnectionLimiter(2)
	if !cl.TryConnect("1.2.3.4") || !cl.TryConnect("1.2.3.4") {
		t.Fatal("first two connections should pass")
	}
	if cl.TryConnect("1.2.3.4") {
		t.Fatal("third connection should be refused")
	}
	cl.Disconnect("1.2.3.4")
	if !cl.TryConnect("1.2.3.4") {
		t.Fatal("slot should be released")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/mcp", nil)
	r.RemoteAddr = "127.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := GetClientIP(r); got != "203.0.113.9" {
		t.Errorf("trusted proxy: got %q", got)
	}

	r = httptest.NewRequest("GET", "/mcp", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := GetClientIP(r); got != "198.51.100.7" {
		t.Errorf("untrusted peer: got %q", got)
	}
}
