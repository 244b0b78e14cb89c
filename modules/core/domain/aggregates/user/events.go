package user

import "context"

type CreatedEvent struct {
	Result *User
}

func NewCreatedEvent(_ context.Context, result *User) *CreatedEvent {
	return &CreatedEvent{Result: result}
}

type UpdatedEvent struct {
	Result *User
}

func NewUpdatedEvent(_ context.Context, result *User) *UpdatedEvent {
	return &UpdatedEvent{Result: result}
}

type DeletedEvent struct{}

func NewDeletedEvent(_ context.Context) *DeletedEvent {
	return &DeletedEvent{}
}
