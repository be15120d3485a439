package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry("Suggestions", "Feedback", " ")

	assert.Equal(t, []string{"Feedback", "Suggestions"}, r.ListPublic())
	assert.True(t, r.IsPublic("Feedback"))
	assert.False(t, r.IsPublic("GLOBAL"))
}

func TestRegistry_Idempotent(t *testing.T) {
	r := NewRegistry()

	r.SetPublic("abc")
	r.SetPublic("abc")
	assert.Equal(t, []string{"abc"}, r.ListPublic())

	r.SetPrivate("abc")
	r.SetPrivate("abc")
	r.SetPrivate("never-public")
	assert.Empty(t, r.ListPublic())
	assert.False(t, r.IsPublic("abc"))
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry("a")
	list := r.ListPublic()
	list[0] = "mutated"

	assert.Equal(t, []string{"a"}, r.ListPublic())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.SetPublic("room")
		}()
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = r.ListPublic()
			}
			_ = r.IsPublic("room")
		}()
	}
	wg.Wait()

	assert.True(t, r.IsPublic("room"))
}
