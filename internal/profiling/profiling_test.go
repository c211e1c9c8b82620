package profiling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTopNOrdersByDuration(t *testing.T) {
	ResetFrame()
	Add("pass.depth", 2100*time.Microsecond)
	Add("pass.phong", 4200*time.Microsecond)
	Add("present", 3*time.Millisecond)

	assert.Equal(t, "pass.phong:4.2ms, present:3ms", TopN(2))
	assert.Equal(t, "pass.phong:4.2ms, present:3ms, pass.depth:2.1ms", TopN(10))
	assert.Equal(t, "", TopN(0))
}

func TestSumWithPrefixAndCount(t *testing.T) {
	ResetFrame()
	Add("pass.depth", time.Millisecond)
	Add("pass.composite", time.Millisecond)
	Add("pass.composite", time.Millisecond)
	Add("poll", 5*time.Millisecond)

	assert.Equal(t, 3*time.Millisecond, SumWithPrefix("pass."))
	assert.Equal(t, 2, Count("pass.composite"))

	ResetFrame()
	assert.Empty(t, Snapshot())
	assert.Equal(t, 0, Count("pass.composite"))
}

func TestTrackRecords(t *testing.T) {
	ResetFrame()
	stop := Track("frame")
	stop()
	_, ok := Snapshot()["frame"]
	assert.True(t, ok)
	assert.Equal(t, 1, Count("frame"))
}
