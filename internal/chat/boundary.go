// Package chat defines the outbound chat boundary and its Mattermost
// implementation. The delivery coordinator is the only caller; it catches and
// logs every error from this boundary, so nothing here surfaces to end users.
package chat

import "context"

// Boundary is the minimal chat message lifecycle surface the delivery
// coordinator needs. threadID of "" means a top-level message; a non-empty
// threadID is the chat message id of the thread root.
type Boundary interface {
	Send(ctx context.Context, channelID, text, threadID string) (messageID string, err error)
	Edit(ctx context.Context, channelID, messageID, text string) error
	Remove(ctx context.Context, channelID, messageID string) error
}
