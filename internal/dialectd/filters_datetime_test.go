package dialectd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDjangoDate_InterleavesLiteralsAndDirectivesInOrder(t *testing.T) {
	ts := time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-07-30", formatDjangoDate(ts, "Y-m-d"))
	assert.Equal(t, "July 30, 2026", formatDjangoDate(ts, "F j, Y"))
}

func TestFormatDjangoDate_HandwrittenSpecifiersInterleaveToo(t *testing.T) {
	ts := time.Date(2026, time.July, 21, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "July 21st, 2026", formatDjangoDate(ts, "F jS, Y"))
}
