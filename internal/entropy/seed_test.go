package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilClientSeeds(t *testing.T) {
	c := NewClient("")
	assert.Nil(t, c)
	assert.NotZero(t, c.Seed())
}

func TestSeedsVary(t *testing.T) {
	var c *Client
	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		seen[c.Seed()] = true
	}
	assert.Greater(t, len(seen), 1, "consecutive seeds should differ")
}

func TestPackSeed(t *testing.T) {
	assert.Equal(t, int64(1), packSeed([]int{0, 0, 0, 0, 0, 0, 0, 1}))
	assert.Equal(t, int64(0x0102030405060708), packSeed([]int{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.Equal(t, int64(1), packSeed([]int{0, 0, 0, 0, 0, 0, 0, 0}), "zero remaps to one")
	assert.Equal(t, int64(-1), packSeed([]int{255, 255, 255, 255, 255, 255, 255, 255}))
}
