package patch

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/messages"
)

// DefaultDiffMaxLines is the default maximum number of diff lines kept per mismatch.
const DefaultDiffMaxLines = 40

func diffLimit(value int) int {
	if value <= 0 {
		return DefaultDiffMaxLines
	}
	return value
}

// regionDiff renders what it takes to turn the installed text of d into the
// reference text, as a unified diff of at most maxLines lines.
func regionDiff(d catalog.Directive, target string, reference string, installed string, want string, maxLines int) string {
	diff := udiff.Unified(
		fmt.Sprintf(messages.PatchDiffInstalledFmt, target),
		fmt.Sprintf(messages.PatchDiffReferenceFmt, reference),
		installed,
		want,
	)
	body := strings.TrimRight(diff, "\n")
	if body == "" {
		return ""
	}
	lines := strings.Split(body, "\n")
	limit := diffLimit(maxLines)
	if hidden := len(lines) - limit; hidden > 0 {
		lines = append(lines[:limit], fmt.Sprintf(messages.PatchDiffTruncatedFmt, hidden, d))
	}
	return strings.Join(lines, "\n") + "\n"
}
