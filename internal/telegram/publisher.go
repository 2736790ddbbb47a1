package telegram

import "context"

// ChannelPublisher публикует посты в один целевой канал через Bot API.
type ChannelPublisher struct {
	client BotClient
	chatID string
}

// NewChannelPublisher создаёт паблишер. chatID — @username канала либо
// числовой идентификатор чата.
func NewChannelPublisher(client BotClient, chatID string) *ChannelPublisher {
	return &ChannelPublisher{
		client: client,
		chatID: chatID,
	}
}

// Publish реализует app.Publisher. Markdown обязателен: скрытый тег
// подавления дублей — это Markdown-ссылка нулевой ширины.
func (p *ChannelPublisher) Publish(ctx context.Context, body string) error {
	return p.client.SendMessage(ctx, p.chatID, body, "Markdown")
}
