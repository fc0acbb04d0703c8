// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/embedsync/core"
)

const (
	// DefaultTargetSize is the default chunk size in characters (~2000 tokens).
	DefaultTargetSize = 8000
)

// DefaultSeparators are tried in priority order: paragraph, line, word.
var DefaultSeparators = []string{"\n\n", "\n", " "}

// Splitter splits text into size-bounded chunks using a prioritized list of separators.
// The last separator is the word-level one: oversized chunks it produces are
// force-chopped instead of rejecting the strategy.
type Splitter struct {
	Separators []string
}

// New creates a splitter with the given separators, or DefaultSeparators if none are given.
func New(separators ...string) *Splitter {
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Splitter{Separators: separators}
}

// Split splits text with the default separators. See Splitter.Split.
func Split(text string, targetSize int) []string {
	return New().Split(text, targetSize)
}

// Split returns the ordered, non-empty chunks of text. Each chunk holds at most
// targetSize characters. Joining the chunks reproduces text except for
// separators dropped at chunk boundaries.
//
// Empty text, or oversized text made only of separators, yields no chunks.
// A non-positive targetSize disables splitting.
func (s *Splitter) Split(text string, targetSize int) []string {
	if text == "" {
		return nil
	}
	if targetSize <= 0 || utf8.RuneCountInString(text) <= targetSize {
		return []string{text}
	}

	separators := s.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}

	for i, sep := range separators {
		if sep == "" || !strings.Contains(text, sep) {
			continue
		}
		last := i == len(separators)-1
		if chunks, ok := splitOn(text, sep, targetSize, last); ok {
			return chunks
		}
	}

	return fixedWidth(text, targetSize)
}

// Chunks splits text with the default separators and attaches position
// metadata for the given source.
func Chunks(locator, text string, targetSize int) []core.TextChunk {
	return New().Chunks(locator, text, targetSize)
}

// Chunks splits text and attaches position metadata for the given source.
func (s *Splitter) Chunks(locator, text string, targetSize int) []core.TextChunk {
	pieces := s.Split(text, targetSize)
	chunks := make([]core.TextChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = core.TextChunk{
			SourceLocator: locator,
			Index:         i,
			Total:         len(pieces),
			Text:          piece,
		}
	}
	return chunks
}

// splitOn greedily packs the pieces of text around sep into chunks.
// It reports false if an oversized chunk remains and force is not set.
func splitOn(text, sep string, targetSize int, force bool) ([]string, bool) {
	sepLen := utf8.RuneCountInString(sep)

	var packed []string
	var buf strings.Builder
	bufLen := 0

	for _, part := range strings.Split(text, sep) {
		partLen := utf8.RuneCountInString(part)
		if bufLen > 0 && bufLen+sepLen+partLen <= targetSize {
			buf.WriteString(sep)
			buf.WriteString(part)
			bufLen += sepLen + partLen
			continue
		}
		if bufLen == 0 {
			// Leading or repeated separators collapse into the next piece.
			buf.WriteString(part)
			bufLen = partLen
			continue
		}
		packed = append(packed, buf.String())
		buf.Reset()
		buf.WriteString(part)
		bufLen = partLen
	}
	if bufLen > 0 {
		packed = append(packed, buf.String())
	}

	chunks := make([]string, 0, len(packed))
	for _, chunk := range packed {
		if utf8.RuneCountInString(chunk) <= targetSize {
			chunks = append(chunks, chunk)
			continue
		}
		if !force {
			return nil, false
		}
		chunks = append(chunks, fixedWidth(chunk, targetSize)...)
	}
	return chunks, true
}

// fixedWidth slices text into consecutive pieces of size characters.
func fixedWidth(text string, size int) []string {
	var pieces []string
	for len(text) > 0 {
		end, n := 0, 0
		for end < len(text) && n < size {
			_, width := utf8.DecodeRuneInString(text[end:])
			end += width
			n++
		}
		pieces = append(pieces, text[:end])
		text = text[end:]
	}
	return pieces
}
