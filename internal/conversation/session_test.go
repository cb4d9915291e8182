package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()

	s, ok := store.Get(10)
	assert.False(t, ok)
	assert.Equal(t, Session{ChatID: 10, State: StateIdle}, s)

	store.Put(Session{ChatID: 10, State: StateMenu, SelectedProductID: "trout"})
	s, ok = store.Get(10)
	assert.True(t, ok)
	assert.Equal(t, StateMenu, s.State)
	assert.Equal(t, "trout", s.SelectedProductID)
	assert.Equal(t, 1, store.Len())

	store.Put(Session{ChatID: 10, State: StateEnded})
	_, ok = store.Get(10)
	assert.False(t, ok, "terminal sessions are torn down")

	store.Put(Session{ChatID: 11, State: StateCart})
	store.Delete(11)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreKeepsChatsApart(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Put(Session{ChatID: id, State: StateMenu})
			tr, ok := Step(mustGet(store, id), ShowCart())
			if ok {
				store.Put(tr.Session)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
	for i := int64(1); i <= 50; i++ {
		s, _ := store.Get(i)
		assert.Equal(t, StateCart, s.State)
	}
}

func mustGet(store Store, id int64) Session {
	s, _ := store.Get(id)
	return s
}
