package audit

import (
	"github.com/sirupsen/logrus"

	"github.com/tanzim-io/tanzim-sdk/modules/content/domain/content"
	"github.com/tanzim-io/tanzim-sdk/modules/core/domain/aggregates/user"
	"github.com/tanzim-io/tanzim-sdk/modules/hierarchy/domain/hierarchy"
	"github.com/tanzim-io/tanzim-sdk/pkg/eventbus"
)

// Register subscribes an audit trail consumer for every domain event the
// services publish. Events fire after commit, so each line records a change
// that is already durable.
func Register(bus eventbus.EventBus, logger *logrus.Logger) {
	log := logger.WithField("component", "audit")

	bus.Subscribe(func(e *hierarchy.CreatedEvent) {
		log.WithFields(logrus.Fields{
			"node_id": e.Result.ID(),
			"family":  e.Result.Family(),
			"level":   e.Result.Level(),
			"name":    e.Result.Name(),
		}).Info("hierarchy node created")
	})
	bus.Subscribe(func(e *hierarchy.UpdatedEvent) {
		fields := logrus.Fields{}
		if e.Data != nil {
			fields["node_id"] = e.Data.ID()
			fields["family"] = e.Data.Family()
			fields["level"] = e.Data.Level()
		}
		log.WithFields(fields).Info("hierarchy node updated")
	})
	bus.Subscribe(func(_ *hierarchy.DeletedEvent) {
		log.Info("hierarchy node deleted")
	})

	bus.Subscribe(func(e *user.CreatedEvent) {
		log.WithFields(logrus.Fields{
			"user_id":     e.Result.ID(),
			"admin_level": e.Result.AdminLevel(),
			"hierarchy":   e.Result.ActiveHierarchy(),
		}).Info("user created")
	})
	bus.Subscribe(func(e *user.UpdatedEvent) {
		log.WithFields(logrus.Fields{
			"user_id": e.Result.ID(),
			"active":  e.Result.Active(),
		}).Info("user updated")
	})

	bus.Subscribe(func(e *content.CreatedEvent) {
		log.WithFields(logrus.Fields{
			"content_id": e.Result.ID(),
			"kind":       e.Result.Kind(),
			"author_id":  e.Result.AuthorID(),
		}).Info("content created")
	})
	bus.Subscribe(func(e *content.UpdatedEvent) {
		log.WithFields(logrus.Fields{
			"content_id": e.Result.ID(),
			"active":     e.Result.Active(),
		}).Info("content updated")
	})
	bus.Subscribe(func(_ *content.DeletedEvent) {
		log.Info("content deleted")
	})
}
