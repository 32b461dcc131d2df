package chunker

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	c := New(Params{})
	for _, input := range []string{"", "   ", "\n\n\t"} {
		if got := c.Split(input); got != nil {
			t.Errorf("Split(%q) = %v, want nil", input, got)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	c := New(Params{})
	text := "A short document that fits in one chunk."
	got := c.Split(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want %q", got[0], text)
	}
}

func TestSplitRespectsSizeBound(t *testing.T) {
	c := New(Params{Size: 100, Overlap: 20})
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 120 {
			t.Errorf("chunk %d has length %d, want <= size+overlap (120)", i, n)
		}
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("alpha ", 12)
	para2 := strings.Repeat("beta ", 12)
	c := New(Params{Size: 80, Overlap: 0})
	chunks := c.Split(strings.TrimSpace(para1) + "\n\n" + strings.TrimSpace(para2))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0], "beta") {
		t.Errorf("first chunk crosses the paragraph boundary: %q", chunks[0])
	}
	if strings.Contains(chunks[1], "alpha") {
		t.Errorf("second chunk crosses the paragraph boundary: %q", chunks[1])
	}
}

func TestSplitOverlapSharedBetweenChunks(t *testing.T) {
	c := New(Params{Size: 100, Overlap: 30})
	text := strings.Repeat("one two three four five six seven eight nine ten ", 20)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 30 {
			head = head[:30]
		}
		// The start of each chunk repeats text from the end of the
		// previous one.
		if !strings.Contains(chunks[i-1], strings.Fields(head)[0]) {
			t.Errorf("chunk %d does not overlap with its predecessor", i)
		}
	}
}

func TestSplitNoBoundaries(t *testing.T) {
	c := New(Params{Size: 50, Overlap: 0})
	text := strings.Repeat("x", 130)
	chunks := c.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total != 130 {
		t.Errorf("hard split lost characters: total %d, want 130", total)
	}
}

func TestSplitCoversAllContent(t *testing.T) {
	c := New(Params{Size: 120, Overlap: 25})
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Sentence number ")
		b.WriteRune(rune('a' + i%26))
		b.WriteString(" carries some payload. ")
	}
	text := b.String()
	chunks := c.Split(text)
	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		if !strings.Contains(joined, word) {
			t.Fatalf("word %q missing from chunk output", word)
		}
	}
}

func TestTokenLength(t *testing.T) {
	length, err := TokenLength("o200k_base")
	if err != nil {
		t.Fatalf("TokenLength: %v", err)
	}
	if n := length("hello world"); n <= 0 {
		t.Errorf("token length = %d, want > 0", n)
	}
	c := New(Params{Size: 40, Overlap: 10, Length: length})
	text := strings.Repeat("chunking by tokens keeps sizes model aware. ", 15)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
}
