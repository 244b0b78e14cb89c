package hierarchy

import "context"

type CreatedEvent struct {
	Result *Node
}

func NewCreatedEvent(_ context.Context, result *Node) *CreatedEvent {
	return &CreatedEvent{Result: result}
}

type UpdatedEvent struct {
	Data   *Node
	Result *Node
}

func NewUpdatedEvent(_ context.Context, data *Node) *UpdatedEvent {
	return &UpdatedEvent{Data: data}
}

type DeletedEvent struct {
	Result *Node
}

func NewDeletedEvent(_ context.Context) *DeletedEvent {
	return &DeletedEvent{}
}
