package cache

import (
	"context"
	"testing"
)

func TestMemoryCacheDeduplicates(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	first, err := c.MarkEventProcessed(ctx, "evt_1")
	if err != nil || !first {
		t.Fatalf("first mark = (%v, %v), want (true, nil)", first, err)
	}
	again, err := c.MarkEventProcessed(ctx, "evt_1")
	if err != nil || again {
		t.Fatalf("second mark = (%v, %v), want (false, nil)", again, err)
	}
	other, err := c.MarkEventProcessed(ctx, "evt_2")
	if err != nil || !other {
		t.Fatalf("distinct event = (%v, %v), want (true, nil)", other, err)
	}
}
