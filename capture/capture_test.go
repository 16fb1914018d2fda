package capture

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferCollectsWrites(t *testing.T) {
	b := NewBuffer()

	n, err := b.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	b.WriteString("world")

	assert.Equal(t, "hello world", b.Contents())
}

func TestBufferResetDiscards(t *testing.T) {
	b := NewBuffer()
	b.WriteString("stale output")
	b.Reset()

	assert.Empty(t, b.Contents())

	b.WriteString("fresh")
	assert.Equal(t, "fresh", b.Contents())
}

func TestBufferStripsAnsiSequences(t *testing.T) {
	b := NewBuffer()
	b.WriteString("\x1b[31mFAILED\x1b[0m plain \x1b[1;32mok\x1b[0m")

	assert.Equal(t, "FAILED plain ok", b.Contents())
}

func TestBufferConcurrentWrites(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.WriteString("x")
		}()
	}
	wg.Wait()

	assert.Len(t, b.Contents(), 16)
}

func TestNopIsAlwaysEmpty(t *testing.T) {
	var src Source = Nop{}
	assert.Empty(t, src.Contents())
	src.Reset()
	assert.Empty(t, src.Contents())
}
