package content

import "context"

type CreatedEvent struct {
	Result *Content
}

func NewCreatedEvent(_ context.Context, result *Content) *CreatedEvent {
	return &CreatedEvent{Result: result}
}

type UpdatedEvent struct {
	Result *Content
}

func NewUpdatedEvent(_ context.Context, result *Content) *UpdatedEvent {
	return &UpdatedEvent{Result: result}
}

type DeletedEvent struct{}

func NewDeletedEvent(_ context.Context) *DeletedEvent {
	return &DeletedEvent{}
}
