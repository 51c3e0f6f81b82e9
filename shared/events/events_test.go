package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	id := uuid.New()
	raw, err := Encode(UserCreated, UserCreatedEvent{UserID: id, Username: "alice"})
	require.NoError(t, err)

	event, err := Decode(map[string]any{"event": string(raw)})
	require.NoError(t, err)
	assert.Equal(t, UserCreated, event.Type)
	assert.False(t, event.Timestamp.IsZero())

	var data UserCreatedEvent
	require.NoError(t, DecodeData(event, &data))
	assert.Equal(t, id, data.UserID)
	assert.Equal(t, "alice", data.Username)
}

func TestDecodeRejectsMalformedMessages(t *testing.T) {
	_, err := Decode(map[string]any{"other": "x"})
	assert.Error(t, err)

	_, err = Decode(map[string]any{"event": "{not json"})
	assert.Error(t, err)
}
