package tts

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// MaxTextBytes is the longest utterance the engine accepts, in GBK bytes.
const MaxTextBytes = 1024

// EncodedLen returns the length of text in the engine's GBK encoding. Runes
// GBK cannot represent count as the single byte substitute.
func EncodedLen(text string) int {
	enc := encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder())
	out, err := enc.String(text)
	if err != nil {
		// ReplaceUnsupported only fails on invalid UTF-8; fall back to the
		// UTF-8 length, which is never shorter.
		return len(text)
	}
	return len(out)
}

// ValidateText checks a single utterance before it is sent to the engine.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrInvalidText
	}
	if n := EncodedLen(text); n > MaxTextBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTextTooLong, n, MaxTextBytes)
	}
	return nil
}

// BatchItem is one utterance of a batch.
type BatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ValidateBatch checks a batch: non-empty, unique non-empty ids, valid texts.
func ValidateBatch(items []BatchItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: batch is empty", ErrInvalidBatch)
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return fmt.Errorf("%w: item %d has no id", ErrInvalidBatch, i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidBatch, item.ID)
		}
		seen[item.ID] = struct{}{}
		if err := ValidateText(item.Text); err != nil {
			return fmt.Errorf("item %q: %w", item.ID, err)
		}
	}
	return nil
}
