package structure

import "regexp"

// headingPattern couples a compiled heading regex with the kind it emits.
type headingPattern struct {
	kind string
	re   *regexp.Regexp
}

// headingPatterns is the ordered pattern table. Order is the contract: the
// first pattern that matches a line wins. Group 1 captures the numbering
// token (decimal or uppercase Roman), group 2 the optional title text.
var headingPatterns = []headingPattern{
	{KindChapter, regexp.MustCompile(`^(?:Chapter|CHAPTER)\s+(\d+|[IVXLCDM]+)(?:\s*[:.-]\s*)?(.*)$`)},
	{KindSection, regexp.MustCompile(`^(?:Section|SECTION)\s+(\d+|[IVXLCDM]+)(?:\s*[:.-]\s*)?(.*)$`)},
	{KindChapter, regexp.MustCompile(`^(\d+|[IVXLCDM]+)\.\s+(.+)$`)},
}

// frontMatterTokens mark where front matter ends and main content begins.
// Checked in list order; the first token found anywhere in the text wins,
// even when a later token occurs earlier in the text.
var frontMatterTokens = []string{
	"Chapter 1",
	"CHAPTER 1",
	"Chapter One",
	"CHAPTER ONE",
	"1.",
	"I.",
	"Part 1",
	"PART 1",
}
