// Package patterncache caches validated SQL templates keyed by a
// digit-normalized question pattern, so recurring business questions that
// differ only in literal numbers skip the LLM round trip. The cache stores
// templates, never results, and callers must re-validate rendered SQL before
// execution: a cache hit never bypasses the security gate.
package patterncache

import (
	"container/list"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxSize = 1000
	DefaultTTL     = 7 * 24 * time.Hour
)

var digitRunPattern = regexp.MustCompile(`\d+`)

// Template is a cached SQL statement with the question's numeric literals
// replaced by positional placeholders {n1}, {n2}, ... Slots is the number of
// digit runs in the originating question; the normalized cache key guarantees
// any question that hits this entry has the same number of runs.
type Template struct {
	SQL   string
	Slots int
}

// Render substitutes the question's numeric literals into the template in the
// order they appear. A slot-count mismatch means the entry does not belong to
// this pattern; callers treat that as a miss.
func (t Template) Render(question string) (string, error) {
	numbers := digitRunPattern.FindAllString(question, -1)
	if len(numbers) != t.Slots {
		return "", fmt.Errorf("template expects %d numeric slots, question has %d", t.Slots, len(numbers))
	}
	rendered := t.SQL
	for i, number := range numbers {
		rendered = strings.ReplaceAll(rendered, placeholder(i), number)
	}
	return rendered, nil
}

// NormalizeQuestion lowercases, collapses whitespace, and replaces every
// maximal digit run with a single placeholder token, so "errors last 7 days"
// and "errors last 10 days" share a key.
func NormalizeQuestion(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	return digitRunPattern.ReplaceAllString(normalized, "n")
}

// Key hashes the normalized question pattern.
func Key(question string) string {
	sum := md5.Sum([]byte(NormalizeQuestion(question)))
	return hex.EncodeToString(sum[:])
}

// BuildTemplate replaces the question's numeric literals inside the SQL with
// positional placeholders. Slots are claimed left to right: the i-th digit
// run in the question takes the first remaining whole-number occurrence of
// its literal, so a question repeating a number ("7 errors in 7 days")
// yields independent slots instead of one shared one.
func BuildTemplate(question, sqlText string) Template {
	numbers := digitRunPattern.FindAllString(question, -1)
	templated := sqlText
	for i, number := range numbers {
		wholeNumber := regexp.MustCompile(`\b` + regexp.QuoteMeta(number) + `\b`)
		loc := wholeNumber.FindStringIndex(templated)
		if loc == nil {
			continue
		}
		templated = templated[:loc[0]] + placeholder(i) + templated[loc[1]:]
	}
	return Template{SQL: templated, Slots: len(numbers)}
}

func placeholder(slot int) string {
	return fmt.Sprintf("{n%d}", slot+1)
}

type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	TTLDays float64 `json:"ttl_days"`
}

// Store is the cache contract shared by the in-memory implementation and the
// optional persistent one.
type Store interface {
	Get(question string) (Template, bool)
	Put(question, sqlText string)
	Stats() Stats
	Clear()
}

type entry struct {
	key       string
	template  Template
	createdAt time.Time
}

// Cache is the in-memory implementation: TTL measured from creation, LRU
// eviction at capacity. All operations are serialized by a mutex; the
// read-modify-write sequences in Get and Put are atomic with respect to each
// other.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached template for the question's pattern. Entries older
// than the TTL are removed and reported as a miss.
func (c *Cache) Get(question string) (Template, bool) {
	key := Key(question)

	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		return Template{}, false
	}
	cached := element.Value.(*entry)
	if c.now().Sub(cached.createdAt) >= c.ttl {
		c.order.Remove(element)
		delete(c.entries, key)
		return Template{}, false
	}
	c.order.MoveToFront(element)
	return cached.template, true
}

// Put stores the validated SQL as a template under the question's pattern,
// evicting the least-recently-used entry when full.
func (c *Cache) Put(question, sqlText string) {
	key := Key(question)
	template := BuildTemplate(question, sqlText)

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		cached := element.Value.(*entry)
		cached.template = template
		cached.createdAt = c.now()
		c.order.MoveToFront(element)
		return
	}

	if len(c.entries) >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{
		key:       key,
		template:  template,
		createdAt: c.now(),
	})
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		TTLDays: c.ttl.Hours() / 24,
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
