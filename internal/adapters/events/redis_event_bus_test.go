package events

import (
	"context"
	"testing"

	"github.com/rihla-rentals/backend/internal/domain/entities"
	apperrors "github.com/rihla-rentals/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent(`{"id":"evt-1","vehicle_id":12,"event_type":"updated"}`)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, int64(12), event.VehicleID)

	_, err = decodeEvent(`{"id":"evt-2"}`)
	assert.Error(t, err)

	_, err = decodeEvent(`not json`)
	assert.Error(t, err)
}

func TestPublish_RejectsEventWithoutVehicle(t *testing.T) {
	bus := &RedisEventBus{hubs: make(map[string]*hub)}

	err := bus.Publish(context.Background(), "vehicles:updates", &entities.VehicleEvent{ID: "evt-3"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	err = bus.Publish(context.Background(), "vehicles:updates", nil)
	assert.True(t, apperrors.IsValidation(err))
}
