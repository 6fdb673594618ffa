// Package tokens estimates the prompt size of chat-completion requests.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Chat formatting overhead, following OpenAI's published accounting for
// gpt-4 class models.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	assistantPriming = 3
)

// Message is one role/content pair of a chat prompt.
type Message struct {
	Role    string
	Content string
}

// Counter counts prompt tokens with tiktoken. Models without a known
// encoding fall back to a character-based estimate.
type Counter struct {
	// codecCache caches tokenizer codecs by encoding name
	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex

	// CharsPerToken drives the fallback estimate.
	CharsPerToken float64
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{
		codecCache:    make(map[tokenizer.Encoding]tokenizer.Codec),
		CharsPerToken: 4.0,
	}
}

// CountMessages returns the prompt token count for messages sent to model.
// The second result reports whether the count is a character estimate.
func (c *Counter) CountMessages(model string, messages []Message) (int, bool) {
	codec, err := c.codec(model)
	if err != nil {
		return c.estimate(messages), true
	}

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole
		ids, _, _ := codec.Encode(msg.Content)
		total += len(ids)
	}
	return total + assistantPriming, false
}

// CountText counts tokens for a plain text string.
func (c *Counter) CountText(model, text string) (int, error) {
	codec, err := c.codec(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (c *Counter) estimate(messages []Message) int {
	chars := 0
	for _, msg := range messages {
		chars += len(msg.Role) + len(msg.Content) + 4
	}
	return int(float64(chars) / c.CharsPerToken)
}

func (c *Counter) codec(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(mapModelName(model)); err == nil {
		return codec, nil
	}

	encoding := modelToEncoding(model)

	c.cacheMu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()

	return codec, nil
}

func mapModelName(model string) tokenizer.Model {
	model = strings.ToLower(model)

	switch {
	case model == "gpt-5-mini" || strings.HasPrefix(model, "gpt-5-mini-"):
		return tokenizer.GPT5Mini
	case model == "gpt-5-nano" || strings.HasPrefix(model, "gpt-5-nano-"):
		return tokenizer.GPT5Nano
	case strings.HasPrefix(model, "gpt-5"):
		return tokenizer.GPT5
	case strings.HasPrefix(model, "gpt-4.1"):
		return tokenizer.GPT41
	case strings.HasPrefix(model, "gpt-4o"):
		return tokenizer.GPT4o
	case strings.HasPrefix(model, "gpt-4"):
		return tokenizer.GPT4
	case strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.GPT35Turbo
	default:
		return tokenizer.Model(model)
	}
}

// modelToEncoding picks the encoding for models tiktoken does not know by
// name. Unknown models are assumed to be recent and use o200k_base.
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}
