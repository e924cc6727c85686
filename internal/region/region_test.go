package region

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storpool/sp-openstack/internal/catalog"
)

func chunk(begin, end string) catalog.Directive {
	return catalog.Directive{
		Kind:  catalog.KindChunk,
		Begin: regexp.MustCompile(begin),
		End:   regexp.MustCompile(end),
	}
}

func class(name string) catalog.Directive {
	return catalog.Directive{
		Kind:  catalog.KindClassBlock,
		Name:  name,
		Begin: catalog.ClassPattern(name),
	}
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestExtractChunkExcludesEndLine(t *testing.T) {
	got, err := Extract(strings.NewReader(lines("x", "A", "1", "2", "B", "y")), []catalog.Directive{chunk(`^A$`, `^B$`)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Matched)
	assert.Equal(t, "A\n1\n2\n", got[0].Text)
}

func TestExtractClassTrimsDoubleBlank(t *testing.T) {
	input := lines("class Foo(object):", "    pass", "", "", "bar")
	got, err := Extract(strings.NewReader(input), []catalog.Directive{class("Foo")})
	require.NoError(t, err)
	assert.True(t, got[0].Matched)
	assert.False(t, got[0].AtEOF)
	assert.Equal(t, "class Foo(object):\n    pass\n", got[0].Text)
}

func TestExtractClassKeepsSingleBlankLines(t *testing.T) {
	input := lines("class Foo:", "    def a(self):", "        pass", "", "    def b(self):", "        pass", "", "", "tail")
	got, err := Extract(strings.NewReader(input), []catalog.Directive{class("Foo")})
	require.NoError(t, err)
	assert.Equal(t, lines("class Foo:", "    def a(self):", "        pass", "", "    def b(self):", "        pass"), got[0].Text)
}

func TestExtractClassClosedAtEOF(t *testing.T) {
	input := "class Foo:\n    pass\n\n"
	got, err := Extract(strings.NewReader(input), []catalog.Directive{class("Foo")})
	require.NoError(t, err)
	assert.True(t, got[0].Matched)
	assert.True(t, got[0].AtEOF)
	assert.Equal(t, "class Foo:\n    pass\n", got[0].Text)
}

func TestExtractClassWithoutFinalNewline(t *testing.T) {
	got, err := Extract(strings.NewReader("class Foo:\n    pass"), []catalog.Directive{class("Foo")})
	require.NoError(t, err)
	assert.Equal(t, "class Foo:\n    pass\n", got[0].Text)
}

func TestExtractClassNameMustBeExact(t *testing.T) {
	input := lines("class FooBar(object):", "    pass", "", "")
	got, err := Extract(strings.NewReader(input), []catalog.Directive{class("Foo")})
	require.NoError(t, err)
	assert.False(t, got[0].Matched)
	assert.Empty(t, got[0].Text)
}

func TestExtractUnmatchedDirective(t *testing.T) {
	got, err := Extract(strings.NewReader(lines("x", "y")), []catalog.Directive{chunk(`^A$`, `^B$`)})
	require.NoError(t, err)
	assert.False(t, got[0].Matched)
}

func TestExtractDuplicateChunk(t *testing.T) {
	input := lines("A", "1", "B", "A", "2", "B")
	_, err := Extract(strings.NewReader(input), []catalog.Directive{chunk(`^A$`, `^B$`)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateMatch))
}

func TestExtractDuplicateClass(t *testing.T) {
	input := lines("class Foo:", "    pass", "", "", "class Foo:", "    pass")
	_, err := Extract(strings.NewReader(input), []catalog.Directive{class("Foo")})
	assert.ErrorIs(t, err, ErrDuplicateMatch)
}

func TestExtractUnterminatedChunk(t *testing.T) {
	_, err := Extract(strings.NewReader(lines("x", "A", "1")), []catalog.Directive{chunk(`^A$`, `^B$`)})
	require.ErrorIs(t, err, ErrUnterminatedRegion)
	assert.Contains(t, err.Error(), "line 2")
}

func TestExtractAmbiguousBegin(t *testing.T) {
	directives := []catalog.Directive{chunk(`^A`, `^B$`), chunk(`^AA$`, `^C$`)}
	_, err := Extract(strings.NewReader(lines("AA", "B", "C")), directives)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestExtractOverlappingRegions(t *testing.T) {
	directives := []catalog.Directive{chunk(`^A$`, `^B$`), chunk(`^X$`, `^Y$`)}
	_, err := Extract(strings.NewReader(lines("A", "X", "B", "Y")), directives)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestExtractEndLineStartsNextChunk(t *testing.T) {
	directives := []catalog.Directive{chunk(`^A$`, `^B$`), chunk(`^B$`, `^C$`)}
	got, err := Extract(strings.NewReader(lines("A", "1", "B", "2", "C")), directives)
	require.NoError(t, err)
	assert.Equal(t, "A\n1\n", got[0].Text)
	assert.Equal(t, "B\n2\n", got[1].Text)
}

func TestExtractRejectsNewFileDirective(t *testing.T) {
	_, err := Extract(strings.NewReader("x\n"), []catalog.Directive{{Kind: catalog.KindNewFile}})
	assert.ErrorIs(t, err, ErrUnsupportedDirective)
}

func TestExtractFileMissing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.py"), []catalog.Directive{class("Foo")})
	assert.True(t, os.IsNotExist(err))
}

func TestSpliceReplacesChunkKeepingSurroundings(t *testing.T) {
	input := lines("x", "A", "old", "B", "y")
	res, err := Splice(strings.NewReader(input), []catalog.Directive{chunk(`^A$`, `^B$`)}, []string{"A\n1\n2\n"})
	require.NoError(t, err)
	assert.Empty(t, res.Appended)
	assert.Equal(t, lines("x", "A", "1", "2", "B", "y"), string(res.Data))
}

func TestSpliceClassNormalizesSeparation(t *testing.T) {
	input := lines("import os", "", "", "", "", "class Foo(object):", "    old = 1", "", "", "bar")
	res, err := Splice(strings.NewReader(input), []catalog.Directive{class("Foo")}, []string{"class Foo(object):\n    new = 2\n"})
	require.NoError(t, err)
	assert.Equal(t, lines("import os", "", "", "class Foo(object):", "    new = 2", "", "", "bar"), string(res.Data))
}

func TestSpliceClassAtStartOfFile(t *testing.T) {
	input := lines("class Foo:", "    pass")
	res, err := Splice(strings.NewReader(input), []catalog.Directive{class("Foo")}, []string{"class Foo:\n    x = 1\n"})
	require.NoError(t, err)
	assert.Equal(t, "class Foo:\n    x = 1\n", string(res.Data))
}

func TestSpliceAppendsMissingDirectives(t *testing.T) {
	directives := []catalog.Directive{class("Foo"), class("Bar")}
	canonical := []string{"class Foo:\n    pass\n", "class Bar:\n    pass\n"}
	res, err := Splice(strings.NewReader("import os\n\n"), directives, canonical)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Appended)
	assert.Equal(t, lines("import os", "", "", "class Foo:", "    pass", "", "", "class Bar:", "    pass"), string(res.Data))
}

func TestSpliceAppendAfterMissingFinalNewline(t *testing.T) {
	res, err := Splice(strings.NewReader("x = 1"), []catalog.Directive{class("Foo")}, []string{"class Foo:\n    pass\n"})
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n\n\nclass Foo:\n    pass\n", string(res.Data))
}

func TestSpliceReportsMissingChunk(t *testing.T) {
	res, err := Splice(strings.NewReader("x\n"), []catalog.Directive{chunk(`^A$`, `^B$`)}, []string{"A\n"})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Appended)
}

func TestSpliceDuplicateMarker(t *testing.T) {
	input := lines("A", "B", "A", "B")
	_, err := Splice(strings.NewReader(input), []catalog.Directive{chunk(`^A$`, `^B$`)}, []string{"A\n"})
	assert.ErrorIs(t, err, ErrDuplicateMatch)
}

func TestSpliceCanonicalCountMismatch(t *testing.T) {
	_, err := Splice(strings.NewReader("x\n"), []catalog.Directive{class("Foo")}, nil)
	assert.Error(t, err)
}

func TestSpliceIsIdempotent(t *testing.T) {
	reference := lines(
		"import os",
		"STORPOOL = \"STORPOOL\"",
		"LOCAL = \"LOCAL\"",
		"",
		"",
		"class Base(object):",
		"    pass",
		"",
		"",
		"class StorPoolConnector(Base):",
		"    def connect(self):",
		"        return 1",
		"",
		"    def disconnect(self):",
		"        return 2",
		"",
		"",
		"",
		"def tail():",
		"    pass",
	)
	directives := []catalog.Directive{
		chunk(`^STORPOOL = "STORPOOL"$`, `^LOCAL = "LOCAL"$`),
		class("StorPoolConnector"),
	}

	canonical, err := Extract(strings.NewReader(reference), directives)
	require.NoError(t, err)
	texts := []string{canonical[0].Text, canonical[1].Text}

	first, err := Splice(strings.NewReader(reference), directives, texts)
	require.NoError(t, err)
	require.Empty(t, first.Appended)

	again, err := Extract(strings.NewReader(string(first.Data)), directives)
	require.NoError(t, err)
	for i := range directives {
		assert.True(t, again[i].Matched)
		assert.Equal(t, canonical[i].Text, again[i].Text)
	}

	second, err := Splice(strings.NewReader(string(first.Data)), directives, texts)
	require.NoError(t, err)
	assert.Equal(t, string(first.Data), string(second.Data))
}

func TestSpliceChunkEndingAtClassKeepsItsBlankLines(t *testing.T) {
	reference := lines("A", "1", "", "class Foo:", "    pass")
	directives := []catalog.Directive{chunk(`^A$`, `^class Foo\b`), class("Foo")}

	canonical, err := Extract(strings.NewReader(reference), directives)
	require.NoError(t, err)
	require.Equal(t, "A\n1\n\n", canonical[0].Text)
	texts := []string{canonical[0].Text, canonical[1].Text}

	res, err := Splice(strings.NewReader(reference), directives, texts)
	require.NoError(t, err)
	assert.Equal(t, reference, string(res.Data))

	again, err := Extract(strings.NewReader(string(res.Data)), directives)
	require.NoError(t, err)
	assert.Equal(t, canonical[0].Text, again[0].Text)
	assert.Equal(t, canonical[1].Text, again[1].Text)
}

func TestSpliceChunkEndingAtClassReplacesStaleGap(t *testing.T) {
	input := lines("A", "old", "", "", "", "class Foo:", "    old = 1")
	directives := []catalog.Directive{chunk(`^A$`, `^class Foo\b`), class("Foo")}
	res, err := Splice(strings.NewReader(input), directives, []string{"A\n1\n", "class Foo:\n    new = 2\n"})
	require.NoError(t, err)
	assert.Equal(t, lines("A", "1", "class Foo:", "    new = 2"), string(res.Data))
}

func TestSpliceFileMissing(t *testing.T) {
	_, err := SpliceFile(filepath.Join(t.TempDir(), "missing.py"), []catalog.Directive{class("Foo")}, []string{""})
	assert.True(t, os.IsNotExist(err))
}

func TestChunkTerminator(t *testing.T) {
	rule, ok := TerminatorFor(chunk(`^A$`, `^B$`))
	require.True(t, ok)
	assert.Equal(t, Continue, rule.Closes([]string{"A\n"}, "x\n"))
	assert.Equal(t, CloseBefore, rule.Closes([]string{"A\n"}, "B\n"))
	_, err := rule.Text([]string{"A\n"}, true)
	assert.ErrorIs(t, err, ErrUnterminatedRegion)
}

func TestClassTerminator(t *testing.T) {
	rule, ok := TerminatorFor(class("Foo"))
	require.True(t, ok)
	assert.Equal(t, Continue, rule.Closes([]string{"class Foo:\n"}, "\n"))
	assert.Equal(t, CloseAfter, rule.Closes([]string{"class Foo:\n", "\n"}, "  \n"))
	_, ok = TerminatorFor(catalog.Directive{Kind: catalog.KindNewFile})
	assert.False(t, ok)
}
