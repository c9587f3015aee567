package patterncache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Errors last 7 days", "errors last n days"},
		{"errors   LAST 10   days", "errors last n days"},
		{"top 5 facilities by 30 day uptime", "top n facilities by n day uptime"},
		{"no numbers here", "no numbers here"},
	}
	for _, tt := range tests {
		if got := NormalizeQuestion(tt.in); got != tt.want {
			t.Errorf("NormalizeQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCacheRoundTripAcrossDifferentNumbers(t *testing.T) {
	cache := New(10, time.Hour)
	cache.Put("errors last 7 days", "SELECT * FROM error_logs WHERE error_timestamp >= now() - 7 LIMIT 100")

	template, ok := cache.Get("errors last 10 days")
	if !ok {
		t.Fatal("expected hit for digit-normalized pattern")
	}
	rendered, err := template.Render("errors last 10 days")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT * FROM error_logs WHERE error_timestamp >= now() - 10 LIMIT 100"
	if rendered != want {
		t.Fatalf("rendered = %q, want %q", rendered, want)
	}
}

func TestBuildTemplateAssignsRepeatedLiteralsPositionally(t *testing.T) {
	template := BuildTemplate("top 5 errors in 5 days", "SELECT * FROM error_logs WHERE d >= 5 LIMIT 5")
	if template.Slots != 2 {
		t.Fatalf("Slots = %d, want 2", template.Slots)
	}
	if template.SQL != "SELECT * FROM error_logs WHERE d >= {n1} LIMIT {n2}" {
		t.Fatalf("template SQL = %q", template.SQL)
	}

	// Each repeated literal owns its own slot, so diverging numbers in a
	// later question land in the right positions.
	rendered, err := template.Render("top 3 errors in 9 days")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "SELECT * FROM error_logs WHERE d >= 3 LIMIT 9"
	if rendered != want {
		t.Fatalf("rendered = %q, want %q", rendered, want)
	}
}

func TestRenderSlotMismatch(t *testing.T) {
	template := Template{SQL: "SELECT {n1}", Slots: 1}
	if _, err := template.Render("no numbers"); err == nil {
		t.Fatal("expected slot mismatch error")
	}
}

func TestExpiryTreatedAsMiss(t *testing.T) {
	cache := New(10, 7*24*time.Hour)
	current := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return current }

	cache.Put("errors last 7 days", "SELECT 7")

	current = current.Add(8 * 24 * time.Hour)
	if _, ok := cache.Get("errors last 7 days"); ok {
		t.Fatal("expired entry must be a miss")
	}
	if stats := cache.Stats(); stats.Size != 0 {
		t.Fatalf("expired entry still counted, size = %d", stats.Size)
	}
}

func TestLRUEviction(t *testing.T) {
	cache := New(3, time.Hour)
	cache.Put("question a", "SELECT 'a'")
	cache.Put("question b", "SELECT 'b'")
	cache.Put("question c", "SELECT 'c'")

	// Touch "a" so "b" becomes least recently used.
	if _, ok := cache.Get("question a"); !ok {
		t.Fatal("expected hit for a")
	}

	cache.Put("question d", "SELECT 'd'")

	if _, ok := cache.Get("question b"); ok {
		t.Fatal("LRU entry b should have been evicted")
	}
	for _, q := range []string{"question a", "question c", "question d"} {
		if _, ok := cache.Get(q); !ok {
			t.Fatalf("entry %q should have survived", q)
		}
	}
	if stats := cache.Stats(); stats.Size != 3 {
		t.Fatalf("size = %d, want 3", stats.Size)
	}
}

func TestEvictionKeepsSizeAtCapacity(t *testing.T) {
	cache := New(1000, time.Hour)
	// Distinct letter-based patterns: digits would normalize to the same key.
	for i := 0; i < 1001; i++ {
		question := fmt.Sprintf("pattern %c%c%c", 'a'+i/676, 'a'+(i/26)%26, 'a'+i%26)
		cache.Put(question, "SELECT 1")
	}
	if stats := cache.Stats(); stats.Size != 1000 {
		t.Fatalf("size = %d, want 1000 after evicting one entry", stats.Size)
	}
}

func TestConcurrentAccessNeverExceedsCapacity(t *testing.T) {
	cache := New(50, time.Hour)
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				question := fmt.Sprintf("worker %c question %c", 'a'+worker, 'a'+i%26)
				cache.Put(question, "SELECT 1")
				cache.Get(question)
			}
		}(worker)
	}
	wg.Wait()

	if stats := cache.Stats(); stats.Size > stats.MaxSize {
		t.Fatalf("size %d exceeds max %d", stats.Size, stats.MaxSize)
	}
}

func TestClear(t *testing.T) {
	cache := New(10, time.Hour)
	cache.Put("a question", "SELECT 1")
	cache.Clear()
	if stats := cache.Stats(); stats.Size != 0 {
		t.Fatalf("size = %d after clear", stats.Size)
	}
}
