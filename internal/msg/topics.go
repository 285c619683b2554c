package msg

// Topic names
const (
	TopicChatMessages  = "chat.messages"
	TopicOrderCommands = "orders.commands"
	TopicChatReplies   = "chat.replies"
)
