// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// DEFECT TAGS
// =============================================================================

// DefectTag identifies one kind of truncation or structural defect.
type DefectTag int

const (
	InsufficientLength DefectTag = iota
	UnclosedCodeFence
	IncompleteTable
	IncompleteList
	MidSentenceCutoff
	TrailingContinuationPhrase
	MissingExpectedSections
	UnclosedDataBlock
)

var defectNames = map[DefectTag]string{
	InsufficientLength:         "insufficient_length",
	UnclosedCodeFence:          "unclosed_code_fence",
	IncompleteTable:            "incomplete_table",
	IncompleteList:             "incomplete_list",
	MidSentenceCutoff:          "mid_sentence_cutoff",
	TrailingContinuationPhrase: "trailing_continuation_phrase",
	MissingExpectedSections:    "missing_expected_sections",
	UnclosedDataBlock:          "unclosed_data_block",
}

// String returns the snake_case name of the tag.
func (t DefectTag) String() string {
	if name, ok := defectNames[t]; ok {
		return name
	}
	return "unknown"
}

// Describe returns a human-readable instruction describing what is missing.
// Continuation prompts embed these so the generator knows what to finish.
func (t DefectTag) Describe() string {
	switch t {
	case InsufficientLength:
		return "The response is too short for a full engineering analysis."
	case UnclosedCodeFence:
		return "A code block was opened but never closed with ```."
	case IncompleteTable:
		return "A table row was cut off before its columns were complete."
	case IncompleteList:
		return "A list ends with an empty item marker."
	case MidSentenceCutoff:
		return "The text stops in the middle of a sentence."
	case TrailingContinuationPhrase:
		return "The text ends with a phrase that introduces content that never arrived."
	case MissingExpectedSections:
		return "Several of the five required report sections are missing."
	case UnclosedDataBlock:
		return "The trailing ```json telemetry block was opened but never closed."
	default:
		return "Unknown defect."
	}
}

// ReasonCode summarizes a verdict in one value for status display.
type ReasonCode int

const (
	ReasonComplete ReasonCode = iota
	ReasonTooShort
	ReasonStructural
	ReasonTruncated
	ReasonMissingSections
)

// String returns a short label for the reason.
func (r ReasonCode) String() string {
	switch r {
	case ReasonComplete:
		return "complete"
	case ReasonTooShort:
		return "too short"
	case ReasonStructural:
		return "unbalanced structure"
	case ReasonTruncated:
		return "truncated"
	case ReasonMissingSections:
		return "missing sections"
	default:
		return "unknown"
	}
}

// =============================================================================
// VERDICT
// =============================================================================

// Verdict is the result of one completeness analysis. It is a value type
// and is always recomputed from a fresh snapshot rather than updated.
type Verdict struct {
	IsComplete bool
	Reason     ReasonCode
	// Defects lists every detected tag once, in rule order.
	Defects []DefectTag
	// TailSample is the trailing excerpt of the trimmed text.
	TailSample string
}

// Has reports whether the verdict carries the given tag.
func (v Verdict) Has(tag DefectTag) bool {
	for _, d := range v.Defects {
		if d == tag {
			return true
		}
	}
	return false
}

// DefectNames returns the tag names, for logging.
func (v Verdict) DefectNames() []string {
	names := make([]string, len(v.Defects))
	for i, d := range v.Defects {
		names[i] = d.String()
	}
	return names
}

// =============================================================================
// ANALYZER
// =============================================================================

const (
	// DefaultMinLength is the shortest response accepted as a full report.
	DefaultMinLength = 500

	// DefaultTailLength is the size of Verdict.TailSample in characters.
	DefaultTailLength = 200

	// continuationWindow is how much trailing text continuation phrases are matched against.
	continuationWindow = 100

	// listWindow is how much trailing text is searched for a bare numbered marker.
	listWindow = 50

	dataBlockOpen = "```json"
	fenceMarker   = "```"
)

var (
	tableLinePattern  = regexp.MustCompile(`(?m)^[ \t]*\|.*$`)
	bareBulletPattern = regexp.MustCompile(`(?:^|\n)[ \t]*[-*•][ \t]*$`)
	bareNumberPattern = regexp.MustCompile(`(?m)^\d+\.\s*$`)
	reportLinePattern = regexp.MustCompile(`(?m)^\d+\.\s`)

	continuationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwill\s+(?:be|need|require)\s*$`),
		regexp.MustCompile(`(?i)\bincluding\s*$`),
		regexp.MustCompile(`(?i)\bsuch\s+as\s*$`),
		regexp.MustCompile(`(?i)\bfor\s+example\s*$`),
		regexp.MustCompile(`(?i)\bthe\s+following\s*$`),
		regexp.MustCompile(`:\s*$`),
		regexp.MustCompile(`(?i)\bsteps?\s*:\s*$`),
		regexp.MustCompile(`(?i)\bcomponents?\s*:\s*$`),
	}

	// SectionPatterns match the five expected report sections, in report order.
	SectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)project\s*understanding`),
		regexp.MustCompile(`(?i)engineering\s*decomposition`),
		regexp.MustCompile(`(?i)calculations?|technical\s*logic`),
		regexp.MustCompile(`(?i)build\s*blueprint|bill\s*of\s*materials|bom`),
		regexp.MustCompile(`(?i)testing|failure\s*analysis`),
	}
)

// Analyzer holds the tunable thresholds of the completeness check.
// The zero value is not usable; call NewAnalyzer.
type Analyzer struct {
	MinLength  int
	TailLength int
}

// NewAnalyzer returns an analyzer with the default thresholds.
func NewAnalyzer() Analyzer {
	return Analyzer{MinLength: DefaultMinLength, TailLength: DefaultTailLength}
}

var defaultAnalyzer = NewAnalyzer()

// Analyze runs the default analyzer over text.
func Analyze(text string) Verdict {
	return defaultAnalyzer.Analyze(text)
}

// Analyze classifies text as complete or reports its defects. Rules are
// applied in a fixed order; a too-short text short-circuits all others.
func (a Analyzer) Analyze(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	verdict := Verdict{TailSample: lastRunes(trimmed, a.TailLength)}

	if utf8.RuneCountInString(trimmed) < a.MinLength {
		verdict.Defects = []DefectTag{InsufficientLength}
		verdict.Reason = ReasonTooShort
		return verdict
	}

	var defects []DefectTag

	if strings.Count(trimmed, fenceMarker)%2 != 0 {
		defects = append(defects, UnclosedCodeFence)
	}

	if tableCutOff(trimmed) {
		defects = append(defects, IncompleteTable)
	}

	if bareBulletPattern.MatchString(trimmed) || bareNumberPattern.MatchString(lastRunes(trimmed, listWindow)) {
		defects = append(defects, IncompleteList)
	}

	if endsMidSentence(trimmed) {
		defects = append(defects, MidSentenceCutoff)
	}

	window := lastRunes(trimmed, continuationWindow)
	for _, p := range continuationPatterns {
		if p.MatchString(window) {
			defects = append(defects, TrailingContinuationPhrase)
			break
		}
	}

	if looksLikeReport(trimmed) && CountSections(trimmed) < 3 {
		defects = append(defects, MissingExpectedSections)
	}

	if idx := strings.LastIndex(trimmed, dataBlockOpen); idx != -1 {
		if !strings.Contains(trimmed[idx+len(dataBlockOpen):], fenceMarker) {
			defects = append(defects, UnclosedDataBlock)
		}
	}

	verdict.Defects = defects
	verdict.IsComplete = len(defects) == 0
	verdict.Reason = reasonFor(defects)
	return verdict
}

// CountSections returns how many of the five expected section patterns
// appear anywhere in text.
func CountSections(text string) int {
	found := 0
	for _, p := range SectionPatterns {
		if p.MatchString(text) {
			found++
		}
	}
	return found
}

// tableCutOff inspects the last pipe-led line outside fences. The row is
// incomplete when it has fewer than three pipe-delimited segments, or when
// it ends the text without its closing pipe.
func tableCutOff(trimmed string) bool {
	rows := tableLinePattern.FindAllString(blankFences(trimmed), -1)
	if len(rows) == 0 {
		return false
	}
	last := strings.TrimSpace(rows[len(rows)-1])
	if len(strings.Split(last, "|")) < 3 {
		return true
	}
	return strings.HasSuffix(trimmed, last) && !strings.HasSuffix(last, "|")
}

// blankFences replaces fenced regions with newlines so line-based rules
// ignore tree art and code that happen to start with a pipe.
func blankFences(text string) string {
	fences := findFences(text)
	if len(fences) == 0 {
		return text
	}
	var sb strings.Builder
	pos := 0
	for _, f := range fences {
		sb.WriteString(text[pos:f.start])
		sb.WriteString(strings.Repeat("\n", strings.Count(text[f.start:f.end], "\n")))
		pos = f.end
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// looksLikeReport guards the missing-sections rule so that a casual reply
// is never flagged for lacking report structure.
func looksLikeReport(text string) bool {
	if reportLinePattern.MatchString(text) {
		return true
	}
	return CountSections(text) > 0
}

// endsMidSentence reports whether the last character is a word character,
// comma, semicolon, colon, or dash rather than terminal punctuation.
func endsMidSentence(trimmed string) bool {
	r, _ := utf8.DecodeLastRuneInString(trimmed)
	if r == utf8.RuneError {
		return false
	}
	if strings.ContainsRune(`.!?)"']}`, r) {
		return false
	}
	if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune(",;:-–—", r)
}

func reasonFor(defects []DefectTag) ReasonCode {
	if len(defects) == 0 {
		return ReasonComplete
	}
	switch defects[0] {
	case InsufficientLength:
		return ReasonTooShort
	case UnclosedCodeFence, IncompleteTable, IncompleteList, UnclosedDataBlock:
		return ReasonStructural
	case MissingExpectedSections:
		return ReasonMissingSections
	default:
		return ReasonTruncated
	}
}

// lastRunes returns at most n trailing runes of s.
func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := len(s); i > 0; {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		count++
		if count == n {
			return s[i:]
		}
	}
	return s
}
