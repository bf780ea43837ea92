package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrace_DisabledByDefault(t *testing.T) {
	tr := New(LevelNone)
	tr.Record(Record{Timestamp: 0, Kind: "host_send"})
	total, _ := tr.Summary()
	assert.Equal(t, 0, total)
}

func TestTrace_RecordsWhenEnabled(t *testing.T) {
	tr := New(LevelEvents)
	tr.Record(Record{Timestamp: 0, Kind: "host_send"})
	tr.Record(Record{Timestamp: 1, Kind: "switch_transmit"})
	total, byKind := tr.Summary()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, byKind["host_send"])
	assert.Equal(t, 1, byKind["switch_transmit"])
}

func TestIsValidLevel(t *testing.T) {
	assert.True(t, IsValidLevel("none"))
	assert.True(t, IsValidLevel("events"))
	assert.True(t, IsValidLevel(""))
	assert.False(t, IsValidLevel("bogus"))
}
