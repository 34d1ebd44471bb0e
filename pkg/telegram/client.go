package telegram

import (
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength is the Bot API limit for a text message.
const MaxMessageLength = 4096

type Client struct {
	Bot          *tgbotapi.BotAPI
	UpdateConfig tgbotapi.UpdateConfig
}

func NewClient(token string, debug bool) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot.Debug = debug

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updateConfig.AllowedUpdates = []string{"message", "edited_message"}

	return &Client{
		Bot:          bot,
		UpdateConfig: updateConfig,
	}, nil
}

func (c *Client) Updates() tgbotapi.UpdatesChannel {
	return c.Bot.GetUpdatesChan(c.UpdateConfig)
}

func (c *Client) Stop() {
	c.Bot.StopReceivingUpdates()
}

// Send delivers text, splitting it on line breaks when it is too long.
func (c *Client) Send(chatID int64, text string) error {
	for _, chunk := range SplitMessage(text, MaxMessageLength) {
		if _, err := c.Bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

// SplitMessage cuts text into chunks of at most limit bytes, preferring
// line boundaries.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n') + 1
		if cut == 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
