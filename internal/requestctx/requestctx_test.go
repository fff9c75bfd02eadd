package requestctx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID_Unset(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "", UserID(context.Background()))
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")

	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Equal(t, "", UserID(ctx))
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(WithRequestID(context.Background(), "req-123"), "42")

	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Equal(t, "42", UserID(ctx))
}

func TestDerivedContextDoesNotMutateParent(t *testing.T) {
	parent := WithRequestID(context.Background(), "parent")
	child := WithRequestID(parent, "child")

	assert.Equal(t, "parent", RequestID(parent))
	assert.Equal(t, "child", RequestID(child))
}

// Concurrent requests each derive their own context; none may observe
// another's correlation id.
func TestIsolationAcrossConcurrentRequests(t *testing.T) {
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			ctx := WithRequestID(context.Background(), id)
			for j := 0; j < 1000; j++ {
				if got := RequestID(ctx); got != id {
					t.Errorf("request %s observed foreign id %s", id, got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
