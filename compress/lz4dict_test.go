package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictCompressor_CompressBlock(t *testing.T) {
	c := NewDictCompressor()
	dict := []byte("appliance appliqu")
	block := []byte("appliquer")

	compressed, remLen, stored, err := c.CompressBlock(dict, block)
	require.NoError(t, err)
	assert.Equal(t, len(block), remLen)
	assert.NotEmpty(t, compressed)
	assert.False(t, stored)
}

func TestDictCompressor_EmptyDict(t *testing.T) {
	c := NewDictCompressor()
	block := []byte("standalone block, no shared prefix material")

	compressed, remLen, stored, err := c.CompressBlock(nil, block)
	require.NoError(t, err)
	assert.Equal(t, len(block), remLen)
	assert.NotEmpty(t, compressed)
	assert.False(t, stored)
}

func TestDictCompressor_IncompressibleInput(t *testing.T) {
	c := NewDictCompressor()

	// Pseudo-random bytes, too short and too noisy for LZ4 to find any
	// matches. The remainder length must still be the block length, and
	// if CompressBlock reports the result as stored it must be the raw
	// bytes.
	block := make([]byte, 8)
	state := uint32(0x9E3779B9)
	for i := range block {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		block[i] = byte(state)
	}

	compressed, remLen, stored, err := c.CompressBlock(nil, block)
	require.NoError(t, err)
	assert.Equal(t, len(block), remLen)
	if stored {
		assert.Equal(t, block, compressed)
	}
}
