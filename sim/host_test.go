package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHost_CreateRequestTracksOutstanding(t *testing.T) {
	h := NewHost(0, 0)
	pkt := h.CreateRequest(1, 0xABCD, true, Medium, 100)
	assert.Equal(t, MemRead, pkt.Kind)
	assert.Equal(t, 1, h.Sent)
	assert.Equal(t, 1, h.NumOutstanding())
	assert.Equal(t, int64(100), pkt.CreatedAt)
}

func TestHost_CreateRequestWriteKind(t *testing.T) {
	h := NewHost(0, 0)
	pkt := h.CreateRequest(1, 0, false, Low, 0)
	assert.Equal(t, MemWrite, pkt.Kind)
}

func TestHost_ReceiveResponseClearsOutstanding(t *testing.T) {
	h := NewHost(0, 0)
	pkt := h.CreateRequest(1, 0, true, Medium, 0)
	found := h.ReceiveResponse(pkt)
	assert.True(t, found)
	assert.Equal(t, 0, h.NumOutstanding())
	assert.Equal(t, 1, h.Received)
}

func TestHost_ReceiveResponseForUnknownIdIsTolerated(t *testing.T) {
	h := NewHost(0, 0)
	found := h.ReceiveResponse(&Packet{ID: 999})
	assert.False(t, found)
	assert.Equal(t, 1, h.Received)
}

func TestHost_SequentialIDs(t *testing.T) {
	h := NewHost(0, 0)
	p1 := h.CreateRequest(0, 0, true, Medium, 0)
	p2 := h.CreateRequest(0, 0, true, Medium, 0)
	assert.NotEqual(t, p1.ID, p2.ID)
}
