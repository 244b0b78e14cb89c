package audit_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanzim-io/tanzim-sdk/internal/audit"
	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
)

func TestRegister(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bus := eventbus.NewEventPublisher(logger)
	audit.Register(bus, logger)

	assert.Equal(t, 8, bus.SubscribersCount())

	t.Run("node creation is recorded", func(t *testing.T) {
		node := hierarchy.New(hierarchy.FamilyOriginal, hierarchy.LevelNationalLevel, "National")
		bus.Publish(hierarchy.NewCreatedEvent(context.Background(), node))

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "hierarchy node created", entry.Message)
		assert.Equal(t, node.ID(), entry.Data["node_id"])
	})

	t.Run("user creation is recorded", func(t *testing.T) {
		u := user.New("admin@example.com", "Amina", "Hassan")
		bus.Publish(user.NewCreatedEvent(context.Background(), u))

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "user created", entry.Message)
		assert.Equal(t, u.ID(), entry.Data["user_id"])
	})
}
