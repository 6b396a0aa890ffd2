package cache

import (
	"testing"
	"time"
)

func TestTTLGetSet(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok := c.Get("ics"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("ics", []byte("BEGIN:VCALENDAR"))
	got, ok := c.Get("ics")
	if !ok || string(got) != "BEGIN:VCALENDAR" {
		t.Fatalf("fresh entry: got %q ok=%v", got, ok)
	}

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("ics"); !ok {
		t.Fatal("entry should still be fresh before ttl")
	}
	now = now.Add(time.Second)
	if _, ok := c.Get("ics"); ok {
		t.Fatal("entry should expire exactly at ttl")
	}
}

func TestTTLDelete(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()
	c.Set("calendar:raw", []byte("a"))
	c.Set("calendar:parsed", []byte("b"))
	c.Set("other", []byte("c"))

	c.Delete("other")
	if _, ok := c.Get("other"); ok {
		t.Fatal("deleted key should miss")
	}
	c.DeletePrefix("calendar:")
	if _, ok := c.Get("calendar:raw"); ok {
		t.Fatal("prefix delete should drop calendar:raw")
	}
	if _, ok := c.Get("calendar:parsed"); ok {
		t.Fatal("prefix delete should drop calendar:parsed")
	}
}

func TestTTLCloseIdempotent(t *testing.T) {
	c := New(time.Second)
	c.Close()
	c.Close()
}
