// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// MATCHERS
// =============================================================================

// matcher proposes candidate blocks over the immutable source text.
// Candidates from one matcher never overlap each other.
type matcher interface {
	match(text string) []Block
}

// defaultMatchers is ordered by priority. A candidate that overlaps a region
// already accepted from an earlier matcher is dropped.
var defaultMatchers = []matcher{
	fenceMatcher{},
	tableMatcher{},
	displayMathMatcher{},
	sectionMatcher{},
}

var (
	// diagramStartPattern decides whether fence content is diagram grammar.
	diagramStartPattern = regexp.MustCompile(`^(?:(?:flowchart|graph)(?:[ \t]+(?:TD|TB|LR|RL|BT))?[ \t]*(?:;|\n|$)|sequenceDiagram\b|stateDiagram(?:-v2)?\b|classDiagram\b|erDiagram\b|gantt\b|pie(?:[ \t]+(?:title|showData)\b|[ \t]*(?:\n|$))|block-beta\b)`)

	// diagramSplitPattern finds each diagram declaration inside one fence.
	diagramSplitPattern = regexp.MustCompile(`(?m)^[ \t]*(graph[ \t]+(?:TD|TB|LR|RL|BT)|flowchart[ \t]+(?:TD|TB|LR|RL|BT)|sequenceDiagram|stateDiagram(?:-v2)?|classDiagram|erDiagram|gantt|pie|block-beta)\b`)

	// inlineDisplayMathPattern is $$...$$ alone on one line.
	inlineDisplayMathPattern = regexp.MustCompile(`(?m)^[ \t]*\$\$([^\n$]+)\$\$[ \t]*$`)

	// blockDisplayMathPattern is a $$ line, one or more non-blank body
	// lines, then a closing $$ line.
	blockDisplayMathPattern = regexp.MustCompile(`(?m)^[ \t]*\$\$[ \t]*\n((?:[ \t]*[^ \t\n$][^\n]*\n)+?)[ \t]*\$\$[ \t]*$`)

	sectionLinePattern = regexp.MustCompile(`(?m)^(#{1,3}[ \t]*)?(\*\*)?(\d+)\.[ \t]+([^\n]+?)[ \t]*$`)

	// sectionTitlePattern is a title that names a report section and
	// nothing else.
	sectionTitlePattern = regexp.MustCompile(`(?i)^(?:project\s*understanding|engineering\s*decomposition|calculations?(?:\s*(?:&|and)\s*technical\s*logic)?|technical\s*logic|build\s*blueprint(?:\s*(?:/|&|and)\s*(?:bom|bill\s*of\s*materials))?|bill\s*of\s*materials(?:\s*\(bom\))?|bom|testing(?:\s*(?:&|and)\s*failure\s*analysis)?|failure\s*analysis)$`)

	// treeMarkerPattern finds ASCII tree branches such as "+-- src" or
	// "|-- main.go". Table separators like "|---|" do not match.
	treeMarkerPattern = regexp.MustCompile(`[+|]--+[ \t]+\S`)

	separatorCellPattern = regexp.MustCompile(`^[-:]+$`)
)

const boxDrawingChars = "┌─│└┐┘├┤┬┴┼═║╔╗╚╝"

var mathLanguages = map[string]bool{"math": true, "latex": true, "tex": true, "katex": true}


// =============================================================================
// SEGMENT
// =============================================================================

// Segment partitions text into blocks ordered by start offset. The spans
// of the returned blocks tile text exactly: every byte belongs to exactly
// one block, with plain prose filling the gaps between special regions.
// Segment works on in-progress text; an unclosed fence runs to the end.
func Segment(text string) []Block {
	if text == "" {
		return nil
	}

	var accepted []Block
	for _, m := range defaultMatchers {
		for _, candidate := range m.match(text) {
			if !overlapsAny(candidate.Span, accepted) {
				accepted = append(accepted, candidate)
			}
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Span.Start < accepted[j].Span.Start
	})

	blocks := make([]Block, 0, len(accepted)*2+1)
	pos := 0
	for _, b := range accepted {
		if b.Span.Start > pos {
			blocks = append(blocks, prose(text, pos, b.Span.Start))
		}
		blocks = append(blocks, b)
		pos = b.Span.End
	}
	if pos < len(text) {
		blocks = append(blocks, prose(text, pos, len(text)))
	}
	return blocks
}

// Diagrams returns only the diagram blocks of a segmented document.
func Diagrams(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		if b.Kind == KindDiagram {
			out = append(out, b)
		}
	}
	return out
}

func prose(text string, start, end int) Block {
	return Block{Kind: KindProse, Span: Span{start, end}, Raw: text[start:end]}
}

func overlapsAny(s Span, accepted []Block) bool {
	for _, b := range accepted {
		if s.Overlaps(b.Span) {
			return true
		}
	}
	return false
}

// =============================================================================
// FENCES
// =============================================================================

type fence struct {
	start, end int // whole region including markers
	bodyStart  int
	body       string
	lang       string
	open       bool
}

// findFences scans for triple-backtick regions. A fence without a closing
// marker extends to the end of the text.
func findFences(text string) []fence {
	var fences []fence
	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], fenceMarker)
		if idx < 0 {
			break
		}
		f := fence{start: pos + idx}
		infoStart := f.start + len(fenceMarker)
		nl := strings.IndexByte(text[infoStart:], '\n')
		if nl < 0 {
			// Info string still streaming.
			f.lang = firstWord(text[infoStart:])
			f.bodyStart, f.end, f.open = len(text), len(text), true
			fences = append(fences, f)
			break
		}
		f.lang = firstWord(text[infoStart : infoStart+nl])
		f.bodyStart = infoStart + nl + 1

		closeIdx := strings.Index(text[f.bodyStart:], fenceMarker)
		if closeIdx < 0 {
			f.body = text[f.bodyStart:]
			f.end, f.open = len(text), true
			fences = append(fences, f)
			break
		}
		f.body = text[f.bodyStart : f.bodyStart+closeIdx]
		f.end = f.bodyStart + closeIdx + len(fenceMarker)
		fences = append(fences, f)
		pos = f.end
	}
	return fences
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

type fenceMatcher struct{}

func (fenceMatcher) match(text string) []Block {
	var out []Block
	for _, f := range findFences(text) {
		out = append(out, classifyFence(text, f)...)
	}
	return out
}

// classifyFence turns one fence into a Code, Formula, or Diagram block.
// A mermaid fence holding several declarations yields one block each.
func classifyFence(text string, f fence) []Block {
	base := Block{
		Span:     Span{f.start, f.end},
		Raw:      text[f.start:f.end],
		Language: f.lang,
		Source:   strings.TrimSpace(f.body),
		Open:     f.open,
	}
	content := strings.TrimSpace(f.body)

	switch {
	case mathLanguages[f.lang]:
		base.Kind = KindFormula
		base.Display = true
		base.Language = ""
		return []Block{base}

	case f.lang == "mermaid" || diagramStartPattern.MatchString(content):
		base.Kind = KindDiagram
		base.DiagramKind = DiagramMermaid
		base.Language = ""
		if f.lang == "mermaid" {
			if parts := splitDiagrams(text, f); len(parts) > 1 {
				return parts
			}
		}
		base.Grammar = DiagramGrammar(content)
		return []Block{base}

	case isBoxDrawing(content):
		base.Kind = KindDiagram
		base.DiagramKind = DiagramBoxDrawing
		base.Language = ""
		base.Source = strings.Trim(f.body, "\n")
		return []Block{base}

	default:
		base.Kind = KindCode
		base.Source = strings.TrimRight(f.body, "\n ")
		return []Block{base}
	}
}

// isBoxDrawing reports whether fence content is a drawn diagram rather
// than code, whatever the fence's language tag.
func isBoxDrawing(content string) bool {
	return strings.ContainsAny(content, boxDrawingChars) || treeMarkerPattern.MatchString(content)
}

// splitDiagrams cuts a fence at every diagram declaration after the first.
// Each part's span runs to the start of the next declaration, so the parts
// still tile the fence's original region.
func splitDiagrams(text string, f fence) []Block {
	locs := diagramSplitPattern.FindAllStringSubmatchIndex(f.body, -1)
	if len(locs) < 2 {
		return nil
	}

	// Offsets of each keyword in text.
	starts := make([]int, len(locs))
	for i, loc := range locs {
		starts[i] = f.bodyStart + loc[2]
	}

	bodyEnd := f.bodyStart + len(f.body)
	parts := make([]Block, 0, len(starts))
	for i := range starts {
		spanStart, spanEnd := starts[i], f.end
		srcStart, srcEnd := starts[i], bodyEnd
		if i == 0 {
			spanStart = f.start
		}
		if i+1 < len(starts) {
			spanEnd = starts[i+1]
			srcEnd = starts[i+1]
		}
		src := strings.TrimSpace(text[srcStart:srcEnd])
		parts = append(parts, Block{
			Kind:        KindDiagram,
			DiagramKind: DiagramMermaid,
			Span:        Span{spanStart, spanEnd},
			Raw:         text[spanStart:spanEnd],
			Source:      src,
			Grammar:     DiagramGrammar(src),
			Open:        f.open && i == len(starts)-1,
		})
	}
	return parts
}

// DiagramGrammar names the mermaid grammar a source declares, or "" when
// the first line is not a known declaration.
func DiagramGrammar(source string) string {
	first := strings.TrimSpace(source)
	if nl := strings.IndexByte(first, '\n'); nl >= 0 {
		first = first[:nl]
	}
	lower := strings.ToLower(first)
	switch {
	case strings.HasPrefix(lower, "flowchart"), strings.HasPrefix(lower, "graph"):
		return "flowchart"
	case strings.HasPrefix(lower, "sequencediagram"):
		return "sequence"
	case strings.HasPrefix(lower, "statediagram"):
		return "state"
	case strings.HasPrefix(lower, "classdiagram"):
		return "class"
	case strings.HasPrefix(lower, "erdiagram"):
		return "er"
	case strings.HasPrefix(lower, "gantt"):
		return "gantt"
	case strings.HasPrefix(lower, "pie"):
		return "pie"
	case strings.HasPrefix(lower, "block-beta"):
		return "block"
	default:
		return ""
	}
}

// =============================================================================
// TABLES
// =============================================================================

type tableMatcher struct{}

// match groups consecutive pipe-delimited lines into table regions. A
// region without a header and at least one data row is not a table and
// is left to prose.
func (tableMatcher) match(text string) []Block {
	var out []Block
	runStart, runEnd := -1, -1
	var rows []string

	flush := func() {
		if runStart >= 0 {
			if b, ok := parseTable(rows); ok {
				b.Span = Span{runStart, runEnd}
				b.Raw = text[runStart:runEnd]
				out = append(out, b)
			}
		}
		runStart, runEnd, rows = -1, -1, nil
	}

	for lineStart := 0; lineStart < len(text); {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		next := 0
		if lineEnd < 0 {
			lineEnd = len(text)
			next = len(text)
		} else {
			lineEnd += lineStart
			next = lineEnd + 1
		}
		line := strings.TrimSpace(text[lineStart:lineEnd])
		if isTableRow(line) {
			if runStart < 0 {
				runStart = lineStart
			}
			runEnd = lineEnd
			rows = append(rows, line)
		} else {
			flush()
		}
		lineStart = next
	}
	flush()
	return out
}

func isTableRow(line string) bool {
	return len(line) >= 3 && line[0] == '|' && line[len(line)-1] == '|'
}

// ParseTable parses pipe-delimited rows into a header and body. Rows made
// only of separator cells are discarded.
func ParseTable(lines []string) (header []string, rows [][]string, ok bool) {
	b, ok := parseTable(lines)
	return b.Header, b.Rows, ok
}

func parseTable(lines []string) (Block, bool) {
	var parsed [][]string
	for _, line := range lines {
		cells := SplitTableRow(line)
		if isSeparatorRow(cells) {
			continue
		}
		parsed = append(parsed, cells)
	}
	if len(parsed) < 2 || len(parsed[0]) == 0 {
		return Block{}, false
	}
	return Block{Kind: KindTable, Header: parsed[0], Rows: parsed[1:]}, true
}

// SplitTableRow strips the outer pipes of a row and returns its trimmed cells.
func SplitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if !separatorCellPattern.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}

// FormatTable renders a header and rows back into pipe-delimited text.
func FormatTable(header []string, rows [][]string) string {
	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString(" |\n")
	}
	writeRow(header)
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	writeRow(seps)
	for _, r := range rows {
		writeRow(r)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// =============================================================================
// DISPLAY MATH AND SECTION HEADINGS
// =============================================================================

type displayMathMatcher struct{}

// match finds display math whose delimiters belong to the same formula:
// either both on one line, or each alone on its own line around a body
// without blank lines.
func (displayMathMatcher) match(text string) []Block {
	var out []Block
	for _, p := range []*regexp.Regexp{inlineDisplayMathPattern, blockDisplayMathPattern} {
		for _, loc := range p.FindAllStringSubmatchIndex(text, -1) {
			b := Block{
				Kind:    KindFormula,
				Span:    Span{loc[0], loc[1]},
				Raw:     text[loc[0]:loc[1]],
				Source:  strings.TrimSpace(text[loc[2]:loc[3]]),
				Display: true,
			}
			if !overlapsAny(b.Span, out) {
				out = append(out, b)
			}
		}
	}
	return out
}

// maxBoldSectionTitle bounds the title length of a bold section line, so
// ordinary bold numbered sentences stay list items.
const maxBoldSectionTitle = 80

type sectionMatcher struct{}

// match accepts any numbered heading. A bold numbered line needs a title
// mentioning a report section; a bare numbered line needs a title that is
// exactly a section name, so list items stay inside their section.
func (sectionMatcher) match(text string) []Block {
	var out []Block
	for _, loc := range sectionLinePattern.FindAllStringSubmatchIndex(text, -1) {
		heading, bold := loc[2] >= 0, loc[4] >= 0
		title := cleanSectionTitle(text[loc[8]:loc[9]])
		if title == "" {
			continue
		}
		switch {
		case heading:
		case bold:
			if len(title) > maxBoldSectionTitle || !matchesSectionPattern(title) {
				continue
			}
		default:
			if !sectionTitlePattern.MatchString(title) {
				continue
			}
		}
		n, err := strconv.Atoi(text[loc[6]:loc[7]])
		if err != nil {
			continue
		}
		out = append(out, Block{
			Kind:   KindSection,
			Span:   Span{loc[0], loc[1]},
			Raw:    text[loc[0]:loc[1]],
			Number: n,
			Title:  title,
		})
	}
	return out
}

func cleanSectionTitle(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ":")
}

func matchesSectionPattern(title string) bool {
	for _, p := range SectionPatterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}
