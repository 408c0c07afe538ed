package module

import (
	"sync"
	"testing"

	"github.com/hisahi/uncil-go/internal/rt"
	"github.com/stretchr/testify/require"
)

func TestRequireCachesAndDedupesConcurrentBuiltinLoads(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 100)
	reg := New(world, nil, nil)

	calls := 0
	var mu sync.Mutex
	reg.RegisterBuiltin("math", func(w *rt.World, v *rt.View) (rt.Value, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return rt.FromEntity(rt.NewTable(w, v)), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Require(view, "math", "")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, calls)
}

func TestRequireReportsMissingModule(t *testing.T) {
	world := rt.NewWorld()
	view := rt.NewView(world, 1, 100)
	reg := New(world, nil, nil)

	_, err := reg.Require(view, "nonexistent", "")
	require.Error(t, err)
}
