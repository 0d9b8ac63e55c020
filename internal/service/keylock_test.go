package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex[int64]()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(1)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
	require.Equal(t, 0, km.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex[string]()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()

	require.Equal(t, 0, km.size())
}
