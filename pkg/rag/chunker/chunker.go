// Package chunker splits document text into overlapping chunks along
// natural boundaries, preferring paragraph breaks over line breaks over
// sentence boundaries over word boundaries.
package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Boundary preference order. The empty separator means a hard split.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// LengthFunc measures the size of a piece of text. The default counts runes;
// TokenLength counts model tokens instead.
type LengthFunc func(string) int

// RuneLength counts runes, so multi-byte characters count once.
func RuneLength(s string) int {
	return len([]rune(s))
}

// TokenLength returns a LengthFunc that counts tokens under the given
// tiktoken encoding, e.g. "o200k_base". Sizing chunks by tokens keeps them
// within embedding model limits regardless of script.
func TokenLength(encoding string) (LengthFunc, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}, nil
}

// Chunker splits text into chunks of at most Size length units with
// approximately Overlap units shared between consecutive chunks.
//
// A Chunker should be created using New.
type Chunker struct {
	size    int
	overlap int
	length  LengthFunc
}

// Params configures a Chunker. Zero values fall back to the defaults
// (size 1000, overlap 200, rune length).
type Params struct {
	Size    int
	Overlap int
	Length  LengthFunc
}

// New creates a Chunker from the given parameters.
func New(params Params) *Chunker {
	size := params.Size
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := params.Overlap
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	length := params.Length
	if length == nil {
		length = RuneLength
	}
	return &Chunker{size: size, overlap: overlap, length: length}
}

// Split breaks text into chunks. Whitespace-only input yields no chunks.
// Chunks never exceed size plus overlap, and text shorter than one chunk
// comes back as a single chunk.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.length(text) <= c.size {
		return []string{strings.TrimSpace(text)}
	}
	pieces := c.splitRecursive(text, separators)
	return c.merge(pieces)
}

// splitRecursive produces pieces no longer than size, preferring the
// earliest separator present in the text and falling through to finer
// boundaries only for pieces that are still too long.
func (c *Chunker) splitRecursive(text string, seps []string) []string {
	if c.length(text) <= c.size {
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return c.hardSplit(text)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return c.splitRecursive(text, seps[1:])
	}

	parts := strings.SplitAfter(text, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if c.length(part) > c.size {
			out = append(out, c.splitRecursive(part, seps[1:])...)
			continue
		}
		out = append(out, part)
	}
	return out
}

// hardSplit cuts text into fixed-size rune windows when no boundary fits.
func (c *Chunker) hardSplit(text string) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/c.size+1)
	for start := 0; start < len(runes); start += c.size {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// merge greedily packs pieces into chunks up to size, seeding each new
// chunk with the tail of the previous one so consecutive chunks share
// context.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder
	seedLen := 0

	flush := func() {
		chunk := strings.TrimSpace(cur.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		seed := c.tail(cur.String())
		cur.Reset()
		cur.WriteString(seed)
		seedLen = c.length(seed)
	}

	for _, piece := range pieces {
		curLen := c.length(cur.String())
		// Only flush when the chunk holds more than the carried seed,
		// otherwise a large piece would strand an overlap-only chunk.
		if curLen+c.length(piece) > c.size && curLen > seedLen {
			flush()
		}
		cur.WriteString(piece)
	}
	final := strings.TrimSpace(cur.String())
	if final != "" && (c.length(final) > seedLen || len(chunks) == 0) {
		chunks = append(chunks, final)
	}
	return chunks
}

// tail returns the trailing overlap-sized portion of s, extended left to
// the nearest word boundary when one is close.
func (c *Chunker) tail(s string) string {
	if c.overlap == 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= c.overlap {
		return s
	}
	cut := len(runes) - c.overlap
	tail := string(runes[cut:])
	if idx := strings.IndexAny(tail, " \n"); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}
