package mirror_test

import (
	"testing"

	"github.com/MikhailWahib/flasheeprom/internal/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_GetPut(t *testing.T) {
	m := mirror.New(16)
	require.Equal(t, 16, m.Len())

	require.NoError(t, m.Put(0, 0xAA))
	require.NoError(t, m.Put(15, 0x55))

	v, err := m.Get(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), v)

	v, err = m.Get(15)
	require.NoError(t, err)
	assert.Equal(t, byte(0x55), v)
}

func TestMirror_OutOfRange(t *testing.T) {
	m := mirror.New(8)

	_, err := m.Get(8)
	require.ErrorIs(t, err, mirror.ErrOutOfRange)

	_, err = m.Get(-1)
	require.ErrorIs(t, err, mirror.ErrOutOfRange)

	err = m.Put(100, 1)
	require.ErrorIs(t, err, mirror.ErrOutOfRange)

	var rangeErr *mirror.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 100, rangeErr.Addr)
	assert.Equal(t, 8, rangeErr.Size)
}

func TestMirror_CheckRange(t *testing.T) {
	m := mirror.New(8)

	require.NoError(t, m.CheckRange(0, 8))
	require.NoError(t, m.CheckRange(7, 1))
	require.NoError(t, m.CheckRange(8, 0))
	require.Error(t, m.CheckRange(7, 2))
	require.Error(t, m.CheckRange(0, 9))
	require.Error(t, m.CheckRange(1, -1))
}

func TestMirror_LoadInAddressOrder(t *testing.T) {
	m := mirror.New(6)

	var order []int
	m.Load(func(off int) byte {
		order = append(order, off)
		return byte(off * 2)
	})

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
	assert.Equal(t, []byte{0, 2, 4, 6, 8, 10}, m.Snapshot())
}

func TestMirror_FillAndHalfWord(t *testing.T) {
	m := mirror.New(4)
	m.Fill(0xFF)
	assert.Equal(t, uint16(0xFFFF), m.HalfWord(0))
	assert.Equal(t, uint16(0xFFFF), m.HalfWord(1))

	require.NoError(t, m.Put(2, 0x34))
	require.NoError(t, m.Put(3, 0x12))
	assert.Equal(t, 2, m.HalfWords())
	assert.Equal(t, uint16(0x1234), m.HalfWord(1))
}

func TestMirror_SnapshotIsCopy(t *testing.T) {
	m := mirror.New(2)
	snap := m.Snapshot()
	snap[0] = 9

	v, err := m.Get(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), v)
}
