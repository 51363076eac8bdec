package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignUnassign(t *testing.T) {
	docs := [][]uint32{{0, 2}, {1}}
	c, err := NewCounts([]int{2, 1}, 3, 2)
	require.NoError(t, err)

	c.Assign(0, 0, 0, 1)
	c.Assign(0, 1, 2, 0)
	c.Assign(1, 0, 1, 1)
	require.NoError(t, c.Check(docs))

	assert.Equal(t, []uint32{1, 2}, c.WordTopicSum)
	assert.Equal(t, []uint32{2, 1}, c.DocTopicSum)
	assert.Equal(t, uint32(1), c.WordTopic.Get(0, 1))
	assert.Equal(t, uint32(1), c.DocTopic.Get(0, 0))

	k := c.Unassign(0, 0, 0)
	assert.Equal(t, uint32(1), k)
	assert.Equal(t, uint32(1), c.DocTopicSum[0])
	assert.Equal(t, uint32(0), c.WordTopic.Get(0, 1))

	c.Assign(0, 0, 0, 0)
	require.NoError(t, c.Check(docs))
	assert.Equal(t, []uint32{2, 1}, c.WordTopicSum)
	assert.Equal(t, uint32(0), c.DocWordTopic[0][0])
}

func TestCheckDetectsDrift(t *testing.T) {
	docs := [][]uint32{{0, 1}}
	c, err := NewCounts([]int{2}, 2, 2)
	require.NoError(t, err)
	c.Assign(0, 0, 0, 0)
	c.Assign(0, 1, 1, 1)
	require.NoError(t, c.Check(docs))

	c.WordTopicSum[0] += 1
	assert.True(t, errors.Is(c.Check(docs), ErrInvariant))
	c.WordTopicSum[0] -= 1

	c.DocTopicSum[0] -= 1
	assert.True(t, errors.Is(c.Check(docs), ErrInvariant))
	c.DocTopicSum[0] += 1

	c.DocWordTopic[0][1] = 0
	assert.True(t, errors.Is(c.Check(docs), ErrInvariant))
}

func TestNewCountsBadShape(t *testing.T) {
	_, err := NewCounts(nil, 3, 2)
	assert.Error(t, err)

	_, err = NewCounts([]int{1}, 3, 0)
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	c, err := NewCounts([]int{1}, 2, 2)
	require.NoError(t, err)
	c.Assign(0, 0, 1, 1)

	cp := c.Clone()
	assert.True(t, cp.WordTopic.Equal(c.WordTopic))
	assert.Equal(t, c.DocWordTopic, cp.DocWordTopic)

	cp.Unassign(0, 0, 1)
	cp.Assign(0, 0, 1, 0)
	assert.Equal(t, uint32(1), c.DocWordTopic[0][0])
	assert.Equal(t, []uint32{0, 1}, c.WordTopicSum)
}
