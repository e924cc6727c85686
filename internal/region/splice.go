package region

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/messages"
)

// SpliceResult is the rewritten file and which directives had to be appended
// because their begin marker never appeared in the input.
type SpliceResult struct {
	Data     []byte
	Appended []int
}

// Splice copies r line by line, replacing every region a directive matches
// with canonical[i]. Class blocks are separated from the preceding content by
// exactly two blank lines. Directives that never match are appended at the end
// in order, each after two blank lines.
func Splice(r io.Reader, directives []catalog.Directive, canonical []string) (SpliceResult, error) {
	if len(canonical) != len(directives) {
		return SpliceResult{}, fmt.Errorf(messages.RegionCanonicalCountFmt, len(canonical), len(directives))
	}
	s, err := newScanner(directives)
	if err != nil {
		return SpliceResult{}, err
	}

	var out output
	if err := eachLine(r, func(line string) error {
		ev, err := s.feed(line)
		if err != nil {
			return err
		}
		if ev.closed >= 0 && ev.closeStep == CloseAfter && directives[ev.closed].Kind == catalog.KindClassBlock {
			out.add("\n", "\n")
		}
		if ev.opened >= 0 {
			out.emit(directives[ev.opened], canonical[ev.opened])
		}
		if !ev.consumed {
			out.add(line)
		}
		return nil
	}); err != nil {
		return SpliceResult{}, err
	}
	if _, err := s.end(); err != nil {
		return SpliceResult{}, err
	}

	var appended []int
	for i, t := range s.trackers {
		if t.state == stateDone {
			continue
		}
		out.separate()
		out.add(splitLines(canonical[i])...)
		appended = append(appended, i)
	}
	return SpliceResult{Data: []byte(strings.Join(out.lines, "")), Appended: appended}, nil
}

// SpliceFile runs Splice over the file at path.
func SpliceFile(path string, directives []catalog.Directive, canonical []string) (SpliceResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return SpliceResult{}, err
	}
	defer func() {
		_ = file.Close()
	}()
	return Splice(file, directives, canonical)
}

type output struct {
	lines []string
	// floor is the end of the last emitted chunk. Lines before it are
	// canonical text and are never trimmed.
	floor int
}

func (o *output) add(lines ...string) {
	o.lines = append(o.lines, lines...)
}

// emit writes the canonical text of d where its region began.
func (o *output) emit(d catalog.Directive, text string) {
	if d.Kind == catalog.KindClassBlock {
		o.separate()
	}
	o.add(splitLines(text)...)
	if d.Kind == catalog.KindChunk {
		o.floor = len(o.lines)
	}
}

// separate leaves exactly two blank lines after any existing content. A chunk
// ending right here is left alone: whatever follows it up to its end marker
// belongs to the chunk.
func (o *output) separate() {
	end := len(o.lines)
	for end > o.floor && isBlank(o.lines[end-1]) {
		end--
	}
	o.lines = o.lines[:end]
	if end == 0 || end == o.floor {
		return
	}
	if last := o.lines[end-1]; !strings.HasSuffix(last, "\n") {
		o.lines[end-1] = last + "\n"
	}
	o.add("\n", "\n")
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
