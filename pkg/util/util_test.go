package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertList(t *testing.T) {
	t.Parallel()
	got := ConvertList([]int{1, 2, 3}, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, got)
	assert.Empty(t, ConvertList([]int{}, strconv.Itoa))
}

func TestVal(t *testing.T) {
	t.Parallel()
	s := "x"
	assert.Equal(t, "x", Val(&s))
	assert.Equal(t, 0, Val[int](nil))
}

func TestNewRestyClient(t *testing.T) {
	t.Parallel()
	c := NewRestyClient(0)
	assert.Equal(t, 0, c.RetryCount)
	assert.Equal(t, 10*time.Second, c.GetClient().Timeout)

	c = NewRestyClient(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.GetClient().Timeout)
}

func TestGetHistogramVecReusesRegistered(t *testing.T) {
	t.Parallel()
	first, err := GetHistogramVec("util_test_duration_seconds", "status")
	require.NoError(t, err)
	second, err := GetHistogramVec("util_test_duration_seconds", "status")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestGetCounterVecReusesRegistered(t *testing.T) {
	t.Parallel()
	first, err := GetCounterVec("util_test_total", "status")
	require.NoError(t, err)
	second, err := GetCounterVec("util_test_total", "status")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
