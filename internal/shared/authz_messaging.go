package shared

// Messaging permissions.
const (
	PermMessagesView = "messages.view"
	PermMessagesSend = "messages.send"
)

// MessagingScopes lists all permissions related to buyer/seller messaging.
func MessagingScopes() []string {
	return []string{
		PermMessagesView,
		PermMessagesSend,
	}
}
