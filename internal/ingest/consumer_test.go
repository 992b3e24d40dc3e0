package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"door-access-control-plane/backend/internal/verification/domain"
)

type memVerifier struct {
	mu       sync.Mutex
	attempts []*domain.AccessAttempt
}

func (v *memVerifier) Verify(ctx context.Context, attempt *domain.AccessAttempt) *domain.Decision {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.attempts = append(v.attempts, attempt)
	return &domain.Decision{Granted: true, ReasonCode: domain.ReasonGranted}
}

func (v *memVerifier) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.attempts)
}

func TestHandle_DecodesAttempt(t *testing.T) {
	v := &memVerifier{}
	c := &Consumer{verify: v, timeout: time.Second}

	c.Handle(context.Background(), []byte(`{
		"userId": "u1",
		"deviceId": "d1",
		"areaId": "a1",
		"direction": "IN",
		"verifyMethod": "FACE",
		"timestamp": "2025-06-11T09:00:00Z"
	}`))

	if v.count() != 1 {
		t.Fatalf("verified attempts = %d, want 1", v.count())
	}
	a := v.attempts[0]
	if a.UserID != "u1" || a.DeviceID != "d1" || a.Direction != "IN" {
		t.Errorf("attempt = %+v", a)
	}
	if a.Timestamp.IsZero() {
		t.Error("timestamp should be parsed")
	}
}

func TestHandle_DropsMalformedPayload(t *testing.T) {
	v := &memVerifier{}
	c := &Consumer{verify: v, timeout: time.Second}

	c.Handle(context.Background(), []byte(`not json`))

	if v.count() != 0 {
		t.Errorf("malformed payload must be dropped, got %d attempts", v.count())
	}
}

func TestHandle_ConcurrentDispatch(t *testing.T) {
	v := &memVerifier{}
	c := &Consumer{verify: v, timeout: time.Second}
	ctx := context.Background()

	// Run hands each message to its own goroutine; Handle must be safe to call
	// concurrently.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := fmt.Sprintf(`{"userId":"u%d","deviceId":"d1","direction":"IN"}`, i)
			c.Handle(ctx, []byte(payload))
		}(i)
	}
	wg.Wait()

	if v.count() != 16 {
		t.Errorf("verified attempts = %d, want 16", v.count())
	}
}
