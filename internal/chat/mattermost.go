package chat

import (
	"context"
	"fmt"
	"os"

	"github.com/mattermost/mattermost/server/public/model"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Mattermost implements Boundary against a Mattermost server. Threading uses
// the post's RootId: replies carry the thread root's post id.
type Mattermost struct {
	client  *model.Client4
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewMattermost creates a boundary for the given server URL and bot token.
// Outbound calls are paced to stay under Mattermost's per-connection post
// limits; the limiter waits rather than failing.
func NewMattermost(serverURL, token string) *Mattermost {
	client := model.NewAPIv4Client(serverURL)
	client.SetToken(token)

	return &Mattermost{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("component", "mattermost").Logger(),
	}
}

// Send posts a message, threaded under threadID when non-empty, and returns
// the new post's id.
func (m *Mattermost) Send(ctx context.Context, channelID, text, threadID string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}

	post := &model.Post{
		ChannelId: channelID,
		Message:   text,
	}
	if threadID != "" {
		post.RootId = threadID
	}

	created, _, err := m.client.CreatePost(ctx, post)
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}

	m.logger.Debug().
		Str("channel_id", channelID).
		Str("post_id", created.Id).
		Bool("threaded", threadID != "").
		Msg("post created")

	return created.Id, nil
}

// Edit replaces the message text of an existing post. Mattermost patches by
// post id; channelID is part of the boundary contract but unused here.
func (m *Mattermost) Edit(ctx context.Context, channelID, messageID, text string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	patch := &model.PostPatch{
		Message: &text,
	}

	if _, _, err := m.client.PatchPost(ctx, messageID, patch); err != nil {
		return fmt.Errorf("failed to edit post: %w", err)
	}

	m.logger.Debug().Str("post_id", messageID).Msg("post edited")
	return nil
}

// Remove deletes an existing post.
func (m *Mattermost) Remove(ctx context.Context, channelID, messageID string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := m.client.DeletePost(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	m.logger.Debug().Str("post_id", messageID).Msg("post deleted")
	return nil
}
