package pubsub

// Card change topics. One topic per event type; subscribers filter by
// project on their side.
const (
	TopicCardCreated = "CARD_CREATED"
	TopicCardUpdated = "CARD_UPDATED"
	TopicCardDeleted = "CARD_DELETED"
)
