package chunker

import (
	"strings"
	"unicode/utf8"
)

// Span is a chunk boundary within a text, in byte offsets.
type Span struct {
	Start int

	End int

	// Overlap is the number of leading bytes shared with the previous span.
	Overlap int
}

// separators are tried from coarsest to finest. A separator stays attached
// to the unit it terminates, so units always tile the text.
var separators = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? "},
	{" "},
}

// Split cuts text into spans of at most maxSize characters.
//
// Paragraphs, then lines, then sentences, then words are used as cut
// points; a unit is hard-cut only when it alone exceeds maxSize. Units are
// packed greedily and each span after the first starts up to overlap
// characters before the previous one ends. Whitespace-only text yields no
// spans.
func Split(text string, maxSize, overlap int) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 4
	}

	ends := segment(text, 0, len(text), 0, maxSize, nil)
	return pack(text, ends, maxSize, overlap)
}

// segment appends the end offsets of units covering text[start:end].
func segment(text string, start, end, level, maxSize int, ends []int) []int {
	if runeLen(text[start:end]) <= maxSize {
		return append(ends, end)
	}
	if level >= len(separators) {
		return hardCut(text, start, end, maxSize, ends)
	}

	prev := start
	for _, cut := range cutPoints(text[start:end], separators[level]) {
		ends = segment(text, prev, start+cut, level+1, maxSize, ends)
		prev = start + cut
	}
	return segment(text, prev, end, level+1, maxSize, ends)
}

// cutPoints returns offsets just past each separator occurrence in s,
// excluding the end of s.
func cutPoints(s string, seps []string) []int {
	var cuts []int
	for i := 0; i < len(s); {
		matched := false
		for _, sep := range seps {
			if strings.HasPrefix(s[i:], sep) {
				i += len(sep)
				if i < len(s) {
					cuts = append(cuts, i)
				}
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return cuts
}

// hardCut splits text[start:end] every maxSize runes.
func hardCut(text string, start, end, maxSize int, ends []int) []int {
	count := 0
	for i := range text[start:end] {
		if count == maxSize {
			ends = append(ends, start+i)
			count = 0
		}
		count++
	}
	return append(ends, end)
}

func pack(text string, ends []int, maxSize, overlap int) []Span {
	spans := make([]Span, 0, len(ends))
	start, fresh := 0, 0

	for i := 0; i < len(ends); {
		// The window must hold at least the next unit; give up overlap if needed.
		if runeLen(text[start:ends[i]]) > maxSize {
			start = backRunes(text, ends[i], maxSize)
		}

		end := ends[i]
		i++
		for i < len(ends) && runeLen(text[start:ends[i]]) <= maxSize {
			end = ends[i]
			i++
		}

		spans = append(spans, Span{Start: start, End: end, Overlap: fresh - start})
		if i == len(ends) {
			break
		}

		prevStart := start
		fresh = end
		start = snapToWord(text, backRunes(text, end, overlap), end)
		if start < prevStart {
			start = prevStart
		}
	}

	return spans
}

// backRunes returns the offset n runes before pos, or 0.
func backRunes(text string, pos, n int) int {
	for n > 0 && pos > 0 {
		_, size := utf8.DecodeLastRuneInString(text[:pos])
		pos -= size
		n--
	}
	return pos
}

// snapToWord moves pos forward to the start of the next word when it falls
// inside one, as long as that stays before limit.
func snapToWord(text string, pos, limit int) int {
	if pos == 0 || pos >= limit || text[pos-1] == ' ' || text[pos-1] == '\n' {
		return pos
	}
	idx := strings.IndexAny(text[pos:limit], " \n")
	if idx < 0 || pos+idx+1 >= limit {
		return pos
	}
	return pos + idx + 1
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
