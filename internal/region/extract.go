package region

import (
	"io"
	"os"

	"github.com/storpool/sp-openstack/internal/catalog"
)

// Extract scans r once and returns, for each directive in order, the text it
// delimits. Directives whose begin marker never appears are returned with
// Matched false; deciding whether that is an error is up to the caller.
func Extract(r io.Reader, directives []catalog.Directive) ([]Region, error) {
	s, err := newScanner(directives)
	if err != nil {
		return nil, err
	}
	if err := eachLine(r, func(line string) error {
		_, err := s.feed(line)
		return err
	}); err != nil {
		return nil, err
	}
	if _, err := s.end(); err != nil {
		return nil, err
	}

	out := make([]Region, len(s.trackers))
	for i, t := range s.trackers {
		if t.state == stateDone {
			out[i] = Region{Text: t.text, Matched: true, AtEOF: t.atEOF}
		}
	}
	return out, nil
}

// ExtractFile runs Extract over the file at path.
func ExtractFile(path string, directives []catalog.Directive) ([]Region, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	return Extract(file, directives)
}
