package chunker

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Section is a contiguous byte range of a document starting at a heading line,
// or at offset 0 for text preceding the first heading.
type Section struct {
	Start int
	End   int
	Level int
}

// SectionParser finds heading boundaries with a CommonMark parser, so markers
// inside fenced code blocks are not treated as headings.
type SectionParser struct {
	maxDepth int
	parser   parser.Parser
}

func NewSectionParser(maxDepth int) *SectionParser {
	return &SectionParser{
		maxDepth: maxDepth,
		parser:   goldmark.New().Parser(),
	}
}

// Parse splits content at headings of level <= maxDepth. The returned sections
// cover content exactly: concatenating them yields content. A nil result means
// no heading was found.
func (p *SectionParser) Parse(content string) (sections []Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = fmt.Errorf("markdown parse panicked: %v", r)
		}
	}()

	src := []byte(content)
	root := p.parser.Parse(text.NewReader(src))

	var starts []int
	levels := make(map[int]int)
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level > p.maxDepth || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		start := lineStart(src, h.Lines().At(0).Start)
		if _, dup := levels[start]; !dup {
			starts = append(starts, start)
			levels[start] = h.Level
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return nil, nil
	}

	// Walk order is document order, so starts is already ascending.
	if starts[0] > 0 {
		if len(bytes.TrimSpace(src[:starts[0]])) == 0 {
			levels[0] = levels[starts[0]]
			starts[0] = 0
		} else {
			starts = append([]int{0}, starts...)
		}
	}

	sections = make([]Section, len(starts))
	for i, s := range starts {
		end := len(src)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		sections[i] = Section{Start: s, End: end, Level: levels[s]}
	}
	return sections, nil
}

func lineStart(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.LastIndexByte(src[:offset], '\n') + 1
}
