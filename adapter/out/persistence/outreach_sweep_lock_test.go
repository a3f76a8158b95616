package persistence

import (
	"context"
	"testing"
	"time"
)

func TestMemorySweepLockMutualExclusion(t *testing.T) {
	lock := NewMemorySweepLock()

	release, ok, err := lock.TryAcquire(context.Background(), time.Minute)
	if err != nil || !ok {
		t.Fatalf("TryAcquire = (%v, %v)", ok, err)
	}

	if _, ok, _ := lock.TryAcquire(context.Background(), time.Minute); ok {
		t.Error("second acquire succeeded while lock held")
	}

	release()

	release2, ok, err := lock.TryAcquire(context.Background(), time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire after release = (%v, %v)", ok, err)
	}
	release2()
}
