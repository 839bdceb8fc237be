package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnixMillisTime(t *testing.T) {
	tt := time.Unix(1453839313, 78*int64(time.Millisecond))
	assert.EqualValues(t, 1453839313078, UnixMills(tt))
}

func TestTruncateDay(t *testing.T) {
	tt := time.Date(2010, 3, 7, 23, 59, 1, 5, time.UTC)
	assert.Equal(t, time.Date(2010, 3, 7, 0, 0, 0, 0, time.UTC), TruncateDay(tt))
	assert.Equal(t, time.Date(2010, 2, 28, 0, 0, 0, 0, time.UTC), AddDays(tt, -7))
	assert.Equal(t, time.Date(2009, 3, 7, 0, 0, 0, 0, time.UTC), AddDays(tt, -365))
}
