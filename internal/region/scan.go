// Package region locates vendor regions inside text files in a single linear
// pass, extracts their canonical text, and splices canonical text back into
// live files.
package region

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/messages"
)

var (
	// ErrDuplicateMatch reports a region marker matching a second time.
	ErrDuplicateMatch = errors.New("duplicate match")
	// ErrUnterminatedRegion reports a chunk still open at end of file.
	ErrUnterminatedRegion = errors.New("unterminated region")
	// ErrAmbiguousMatch reports two regions claiming the same line.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrUnsupportedDirective reports a directive that has no region, such as a new file.
	ErrUnsupportedDirective = errors.New("unsupported directive")
)

// Region is the text one directive resolved to in one file.
type Region struct {
	Text    string
	Matched bool
	// AtEOF is set when a class block was closed by the end of the file
	// instead of its double blank line.
	AtEOF bool
}

type state int

const (
	stateClosed state = iota
	stateOpen
	stateDone
)

// tracker is the per-directive scan state: Closed -> Open -> Done.
type tracker struct {
	directive catalog.Directive
	term      Terminator
	state     state
	openedAt  int
	acc       []string
	text      string
	atEOF     bool
}

func (t *tracker) open(line string, lineNo int) {
	t.state = stateOpen
	t.openedAt = lineNo
	t.acc = []string{line}
}

func (t *tracker) finish(eof bool) error {
	text, err := t.term.Text(t.acc, eof)
	if err != nil {
		return fmt.Errorf(messages.RegionOpenedAtFmt, err, t.directive, t.openedAt)
	}
	t.text = text
	t.atEOF = eof
	t.acc = nil
	t.state = stateDone
	return nil
}

// event describes what the scanner did with one line.
type event struct {
	closed    int
	closeStep Step
	opened    int
	consumed  bool
}

type scanner struct {
	trackers []*tracker
	open     int
	lineNo   int
}

func newScanner(directives []catalog.Directive) (*scanner, error) {
	s := &scanner{open: -1, trackers: make([]*tracker, 0, len(directives))}
	for _, d := range directives {
		term, ok := TerminatorFor(d)
		if !ok || d.Begin == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedDirective, d)
		}
		s.trackers = append(s.trackers, &tracker{directive: d, term: term})
	}
	return s, nil
}

// feed advances every directive's state machine by one line.
func (s *scanner) feed(line string) (event, error) {
	s.lineNo++
	ev := event{closed: -1, opened: -1}

	if s.open >= 0 {
		t := s.trackers[s.open]
		step := t.term.Closes(t.acc, line)
		switch step {
		case Continue:
			if err := s.checkInside(line); err != nil {
				return ev, err
			}
			t.acc = append(t.acc, line)
			ev.consumed = true
			return ev, nil
		case CloseAfter:
			if err := t.finish(false); err != nil {
				return ev, err
			}
			ev.closed, ev.closeStep, ev.consumed = s.open, step, true
			s.open = -1
			return ev, nil
		default:
			if err := t.finish(false); err != nil {
				return ev, err
			}
			ev.closed, ev.closeStep = s.open, step
			s.open = -1
		}
	}

	idx, err := s.beginning(line)
	if err != nil || idx < 0 {
		return ev, err
	}
	t := s.trackers[idx]
	if t.state == stateDone {
		return ev, fmt.Errorf(messages.RegionDuplicateFmt, ErrDuplicateMatch, t.directive, s.lineNo)
	}
	t.open(line, s.lineNo)
	s.open = idx
	ev.opened, ev.consumed = idx, true
	return ev, nil
}

// beginning returns the single directive whose begin pattern matches line, or -1.
func (s *scanner) beginning(line string) (int, error) {
	found := -1
	text := content(line)
	for i, t := range s.trackers {
		if !t.directive.Begin.MatchString(text) {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf(messages.RegionAmbiguousFmt, ErrAmbiguousMatch, s.trackers[found].directive, t.directive, s.lineNo)
		}
		found = i
	}
	return found, nil
}

// checkInside rejects a begin marker seen while another region is open.
func (s *scanner) checkInside(line string) error {
	text := content(line)
	for i, t := range s.trackers {
		if !t.directive.Begin.MatchString(text) {
			continue
		}
		if i == s.open {
			return fmt.Errorf(messages.RegionDuplicateFmt, ErrDuplicateMatch, t.directive, s.lineNo)
		}
		return fmt.Errorf(messages.RegionOverlapFmt, ErrAmbiguousMatch, t.directive, s.trackers[s.open].directive, s.lineNo)
	}
	return nil
}

// end closes whatever is still open once the input is exhausted.
func (s *scanner) end() (int, error) {
	if s.open < 0 {
		return -1, nil
	}
	idx := s.open
	s.open = -1
	return idx, s.trackers[idx].finish(true)
}

// eachLine calls fn for every line of r, terminators included. A final line
// without a newline is passed as is.
func eachLine(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
