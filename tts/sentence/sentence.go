// Package sentence splits long text into utterances the engine accepts.
package sentence

import (
	"strings"
	"unicode"

	"github.com/cienet/speakctl/tts"
)

// Splitter breaks text at sentence ends and packs the sentences into chunks
// that fit the engine's text limit.
type Splitter struct {
	// Limit is the largest chunk in GBK bytes.
	Limit int

	abbreviations map[string]bool
}

// NewSplitter creates a splitter for the engine's text limit.
func NewSplitter() *Splitter {
	return &Splitter{
		Limit:         tts.MaxTextBytes,
		abbreviations: makeAbbreviationMap(),
	}
}

// Split returns the chunks of text in order. Every chunk is at most Limit
// GBK bytes; blank text yields none.
func (s *Splitter) Split(text string) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, sent := range s.Sentences(text) {
		for _, piece := range s.cut(sent) {
			n := tts.EncodedLen(piece)
			sep := separator(cur.String(), piece)
			if curLen > 0 && curLen+len(sep)+n > s.Limit {
				flush()
				sep = ""
			}
			cur.WriteString(sep)
			cur.WriteString(piece)
			curLen += len(sep) + n
		}
	}
	flush()
	return chunks
}

// Items returns the chunks of text as batch items with ids from newID.
func (s *Splitter) Items(text string, newID func() string) []tts.BatchItem {
	chunks := s.Split(text)
	items := make([]tts.BatchItem, len(chunks))
	for i, c := range chunks {
		items[i] = tts.BatchItem{ID: newID(), Text: c}
	}
	return items
}

// Sentences returns the trimmed sentences of text.
func (s *Splitter) Sentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !s.isSentenceEnd(runes, i) {
			continue
		}

		// Collect repeated punctuation and closing quotes
		end := i + 1
		for end < len(runes) && (isTerminal(runes[end]) || isCloser(runes[end])) {
			end++
		}

		if sent := strings.TrimSpace(string(runes[start:end])); sent != "" {
			sentences = append(sentences, sent)
		}
		start = end
		i = end - 1
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func (s *Splitter) isSentenceEnd(runes []rune, pos int) bool {
	r := runes[pos]
	switch {
	case r == '\n':
		return true
	case r == '.':
		// A period ends a sentence before whitespace or the end of text,
		// unless it closes an abbreviation or a decimal.
		if pos+1 < len(runes) && !unicode.IsSpace(runes[pos+1]) && !isCloser(runes[pos+1]) {
			return false
		}
		return !s.abbreviations[strings.ToLower(wordBefore(runes, pos))]
	default:
		return isTerminal(r)
	}
}

// cut splits a sentence longer than the limit at clause breaks, or at any
// rune when a clause is still too long.
func (s *Splitter) cut(sent string) []string {
	if tts.EncodedLen(sent) <= s.Limit {
		return []string{sent}
	}

	var pieces []string
	runes := []rune(sent)
	emit := func(from, to int) {
		if piece := strings.TrimSpace(string(runes[from:to])); piece != "" {
			pieces = append(pieces, piece)
		}
	}

	start, size, lastBreak := 0, 0, -1
	for i := 0; i < len(runes); i++ {
		n := tts.EncodedLen(string(runes[i]))
		if size+n > s.Limit {
			cutAt := i
			if lastBreak >= start {
				cutAt = lastBreak + 1
			}
			emit(start, cutAt)
			start, lastBreak = cutAt, -1
			size = tts.EncodedLen(string(runes[start:i]))
			if size+n > s.Limit {
				emit(start, i)
				start, size = i, 0
			}
		}
		size += n
		if isClauseBreak(runes[i]) {
			lastBreak = i
		}
	}
	emit(start, len(runes))
	return pieces
}

// separator returns the text joining two sentences in one chunk: a space
// between latin text, nothing next to CJK.
func separator(prev, next string) string {
	if prev == "" {
		return ""
	}
	last := []rune(prev)[len([]rune(prev))-1]
	first := []rune(next)[0]
	if last < unicode.MaxASCII && first < unicode.MaxASCII {
		return " "
	}
	return ""
}

func wordBefore(runes []rune, pos int) string {
	start := pos
	for start > 0 && !unicode.IsSpace(runes[start-1]) && runes[start-1] != '(' {
		start--
	}
	return string(runes[start:pos])
}

func isTerminal(r rune) bool {
	switch r {
	case '。', '！', '？', '!', '?', '；', ';', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '）', '」', '』':
		return true
	}
	return false
}

func isClauseBreak(r rune) bool {
	switch r {
	case '，', '、', '：', ',', ':', ' ':
		return true
	}
	return false
}

func makeAbbreviationMap() map[string]bool {
	abbrevs := []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr",
		"ph.d", "m.d", "b.a", "m.a", "b.s",
		"inc", "ltd", "co", "corp",
		"i.e", "e.g", "etc", "vs", "cf", "al",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"st", "rd", "ave", "no",
		"u.s", "u.k", "u.n", "e.u",
	}

	m := make(map[string]bool, len(abbrevs))
	for _, abbrev := range abbrevs {
		m[abbrev] = true
	}
	return m
}
