package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agritrace/internal/ledger/models"
)

func TestMemoryRecordsEventsInOrder(t *testing.T) {
	sink := NewMemory()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sink.Emit(ctx, models.NewTransferred(1, "alice", "bob", 100, now)))
	require.NoError(t, sink.Emit(ctx, models.NewVerified(1, "GlobalGAP", now)))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventTransferred, events[0].Type)
	assert.Equal(t, models.EventVerified, events[1].Type)
}

func TestMemorySnapshotDoesNotAliasInternalSlice(t *testing.T) {
	sink := NewMemory()
	require.NoError(t, sink.Emit(context.Background(), models.NewFarmerVerified("carol", time.Now())))

	events := sink.Events()
	events[0].Farmer = "mallory"

	assert.Equal(t, "carol", sink.Events()[0].Farmer.String())
}

func TestRecordKeySelection(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "7", recordKey(models.NewTransferred(7, "alice", "bob", 100, now)))
	assert.Equal(t, "carol", recordKey(models.NewFarmerVerified("carol", now)))
}

func TestEventPayloadOmitsUnsetFields(t *testing.T) {
	payload, err := json.Marshal(models.NewVerified(3, "Fairtrade", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "product_verified", decoded["type"])
	assert.Equal(t, "Fairtrade", decoded["certification"])
	assert.NotContains(t, decoded, "from")
	assert.NotContains(t, decoded, "farmer")
}
