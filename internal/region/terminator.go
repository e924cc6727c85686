package region

import (
	"regexp"
	"strings"

	"github.com/storpool/sp-openstack/internal/catalog"
)

// Step is a terminator's verdict on the next line of an open region.
type Step int

const (
	// Continue adds the line to the region.
	Continue Step = iota
	// CloseBefore ends the region before the line; the line is scanned again
	// as ordinary content.
	CloseBefore
	// CloseAfter ends the region and consumes the line as its closing signal.
	CloseAfter
)

// Terminator decides where an open region ends and what its stored text is.
type Terminator interface {
	// Closes inspects the next line given the lines accumulated so far.
	Closes(acc []string, line string) Step
	// Text renders the stored region text once the region closed,
	// eof reporting whether it closed because the input ended.
	Text(acc []string, eof bool) (string, error)
}

// TerminatorFor returns the termination rule of a region directive.
func TerminatorFor(d catalog.Directive) (Terminator, bool) {
	switch d.Kind {
	case catalog.KindChunk:
		return chunkRule{end: d.End}, true
	case catalog.KindClassBlock:
		return classRule{}, true
	default:
		return nil, false
	}
}

// chunkRule ends a region right before the first line matching end.
type chunkRule struct {
	end *regexp.Regexp
}

func (r chunkRule) Closes(_ []string, line string) Step {
	if r.end.MatchString(content(line)) {
		return CloseBefore
	}
	return Continue
}

func (r chunkRule) Text(acc []string, eof bool) (string, error) {
	if eof {
		return "", ErrUnterminatedRegion
	}
	return strings.Join(acc, ""), nil
}

// classRule ends a declaration block at the second of two consecutive blank
// lines. Reaching EOF first also closes it.
type classRule struct{}

func (classRule) Closes(acc []string, line string) Step {
	if isBlank(line) && len(acc) > 0 && isBlank(acc[len(acc)-1]) {
		return CloseAfter
	}
	return Continue
}

func (classRule) Text(acc []string, _ bool) (string, error) {
	end := len(acc)
	for end > 0 && isBlank(acc[end-1]) {
		end--
	}
	text := strings.Join(acc[:end], "")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

// content strips the line terminator before pattern matching.
func content(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
