package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventRoundTrip(t *testing.T) {
	evt := NewEvent(TypeCompressed, "camp-1", CompressedData{SessionSummary: "they slew the dragon", CompressionCount: 2})
	assert.Equal(t, TypeCompressed, evt.Type)
	assert.Equal(t, "camp-1", evt.CampaignID)
	assert.False(t, evt.Timestamp.IsZero())

	var got CompressedData
	require.NoError(t, evt.Decode(&got))
	assert.Equal(t, "they slew the dragon", got.SessionSummary)
	assert.Equal(t, 2, got.CompressionCount)
}

func TestNewEventUnmarshalable(t *testing.T) {
	evt := NewEvent(TypeInfo, "", make(chan int))
	assert.JSONEq(t, "null", string(evt.Data))
}

func TestChannelEmitterFanOut(t *testing.T) {
	e := NewChannelEmitter(4)
	a := e.Subscribe()
	b := e.Subscribe()

	e.Emit(NewEvent(TypeEventAdded, "c", EventAddedData{Content: "x", ShortTerm: 1}))

	for _, ch := range []<-chan Event{a, b} {
		select {
		case evt := <-ch:
			assert.Equal(t, TypeEventAdded, evt.Type)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	e.Close()
	_, ok := <-a
	assert.False(t, ok)

	// no panic after close
	e.Emit(NewEvent(TypeInfo, "", nil))
	e.Close()
	_, ok = <-e.Subscribe()
	assert.False(t, ok)
}

func TestChannelEmitterDropsWhenFull(t *testing.T) {
	e := NewChannelEmitter(1)
	ch := e.Subscribe()
	e.Emit(NewEvent(TypeInfo, "", InfoData{Message: "1"}))
	e.Emit(NewEvent(TypeInfo, "", InfoData{Message: "2"}))
	e.Close()

	var got []Event
	for evt := range ch {
		got = append(got, evt)
	}
	require.Len(t, got, 1)
	var data InfoData
	require.NoError(t, got[0].Decode(&data))
	assert.Equal(t, "1", data.Message)
}

func TestNopEmitter(t *testing.T) {
	var e Emitter = NopEmitter{}
	e.Emit(NewEvent(TypeInfo, "", nil))
	_, ok := <-e.Subscribe()
	assert.False(t, ok)
	e.Close()
}

func TestESConsumerDrainsWithNilClient(t *testing.T) {
	e := NewChannelEmitter(8)
	done := NewESConsumer(nil, "").Start(context.Background(), e)
	e.Emit(NewEvent(TypeInfo, "", InfoData{Message: "hello"}))
	e.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
