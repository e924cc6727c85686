package patch

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/detect"
	"github.com/storpool/sp-openstack/internal/fsutil"
	"github.com/storpool/sp-openstack/internal/region"
	"github.com/storpool/sp-openstack/internal/testutil"
)

const testCatalog = `
[[component]]
name = "os_brick"

  [[component.release]]
  name = "liberty"
  probe_file = "initiator/connector.py"
  probe = '^class InitiatorConnector'
  files = ["initiator/connector.py", "initiator/storpool.py"]

  [[component.file]]
  path = "initiator/connector.py"

    [[component.file.directive]]
    kind = "chunk"
    begin = '^STORPOOL = "STORPOOL"$'
    end = '^LOCAL = "LOCAL"$'

    [[component.file.directive]]
    kind = "class"
    name = "StorPoolConnector"

  [[component.file]]
  path = "initiator/storpool.py"

    [[component.file.directive]]
    kind = "new"

[[component]]
name = "nova"

  [[component.release]]
  name = "liberty"
  probe_file = "virt/driver.py"
  probe = '^libvirt_volume_drivers = \['
  files = ["virt/driver.py"]

  [[component.file]]
  path = "virt/driver.py"

    [[component.file.directive]]
    kind = "chunk"
    begin = '^libvirt_volume_drivers = \[$'
    end = '^\]$'
`

const referenceConnector = `import os

ISCSI = "ISCSI"
STORPOOL = "STORPOOL"
STORPOOL_V2 = "STORPOOL_V2"
LOCAL = "LOCAL"


class InitiatorConnector(object):
    pass


class StorPoolConnector(InitiatorConnector):
    def connect_volume(self, props):
        return {'type': 'block'}

    def disconnect_volume(self, props, info):
        pass
`

const liveConnector = `import os

ISCSI = "ISCSI"
STORPOOL = "STORPOOL"
LOCAL = "LOCAL"


class InitiatorConnector(object):
    pass


class StorPoolConnector(InitiatorConnector):
    def connect_volume(self, props):
        return None


class Other(object):
    pass
`

const referenceDriver = "libvirt_volume_drivers = [\n    'iscsi=x',\n    'storpool=y',\n]\n"
const liveDriver = "import os\nlibvirt_volume_drivers = [\n    'iscsi=x',\n]\n\nprint(1)\n"

type fixture struct {
	drivers string
	search  string
	matches map[string]detect.Match
	applier *Applier
	out     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog), "test")
	require.NoError(t, err)

	f := &fixture{drivers: t.TempDir(), search: t.TempDir(), out: &bytes.Buffer{}}
	testutil.WriteFile(t, catalog.ReferencePath(f.drivers, "os_brick", "liberty", "initiator/connector.py"), referenceConnector)
	testutil.WriteFile(t, catalog.ReferencePath(f.drivers, "os_brick", "liberty", "initiator/storpool.py"), "# vendor\nprint('storpool')\n")
	testutil.WriteFile(t, catalog.ReferencePath(f.drivers, "nova", "liberty", "virt/driver.py"), referenceDriver)
	testutil.WriteFile(t, filepath.Join(f.search, "os_brick", "initiator", "connector.py"), liveConnector)
	testutil.WriteFile(t, filepath.Join(f.search, "nova", "virt", "driver.py"), liveDriver)

	f.matches = map[string]detect.Match{
		"os_brick": {Release: "liberty", Path: filepath.Join(f.search, "os_brick")},
		"nova":     {Release: "liberty", Path: filepath.Join(f.search, "nova")},
	}
	f.applier = &Applier{
		Catalog:    cat,
		DriversDir: f.drivers,
		System:     RealSystem{Tracker: fsutil.NewTracker()},
		Out:        f.out,
	}
	return f
}

func (f *fixture) target(component string, file string) string {
	return filepath.Join(f.matches[component].Path, filepath.FromSlash(file))
}

func TestCheckReportsPerComponentFailures(t *testing.T) {
	f := newFixture(t)
	results, err := f.applier.Check(f.matches, []string{"os_brick", "nova"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "os_brick", results[0].Component)
	assert.ErrorIs(t, results[0].Err, ErrVerificationMismatch)
	assert.Contains(t, results[0].Diff, "+STORPOOL_V2")
	assert.NotContains(t, results[0].Message(), "\n")

	assert.Equal(t, "nova", results[1].Component)
	assert.ErrorIs(t, results[1].Err, ErrVerificationMismatch)
}

func TestCheckHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	_, err := f.applier.Check(f.matches, []string{"os_brick", "nova"})
	require.NoError(t, err)
	assert.Equal(t, liveConnector, testutil.ReadFile(t, f.target("os_brick", "initiator/connector.py")))
	_, err = os.Stat(f.target("os_brick", "initiator/storpool.py"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, f.out.String())
}

func TestInstallThenCheckSucceeds(t *testing.T) {
	f := newFixture(t)
	components := []string{"os_brick", "nova"}
	require.NoError(t, f.applier.Install(f.matches, components))

	results, err := f.applier.Check(f.matches, components)
	require.NoError(t, err)
	for _, res := range results {
		assert.True(t, res.OK(), "%s: %v", res.Component, res.Err)
		assert.Empty(t, res.Message())
	}

	patched := testutil.ReadFile(t, f.target("os_brick", "initiator/connector.py"))
	assert.Contains(t, patched, "STORPOOL_V2 = \"STORPOOL_V2\"\nLOCAL = \"LOCAL\"\n")
	assert.Contains(t, patched, "        pass\n\n\nclass Other(object):\n    pass\n")
	assert.Equal(t, "import os\nlibvirt_volume_drivers = [\n    'iscsi=x',\n    'storpool=y',\n]\n\nprint(1)\n",
		testutil.ReadFile(t, f.target("nova", "virt/driver.py")))
	assert.Equal(t, "# vendor\nprint('storpool')\n", testutil.ReadFile(t, f.target("os_brick", "initiator/storpool.py")))
	assert.Contains(t, f.out.String(), "os_brick")
}

func TestInstallIsIdempotent(t *testing.T) {
	f := newFixture(t)
	components := []string{"os_brick", "nova"}
	require.NoError(t, f.applier.Install(f.matches, components))
	first := testutil.ReadFile(t, f.target("os_brick", "initiator/connector.py"))

	f.out.Reset()
	require.NoError(t, f.applier.Install(f.matches, components))
	assert.Equal(t, first, testutil.ReadFile(t, f.target("os_brick", "initiator/connector.py")))
	assert.Contains(t, f.out.String(), "up to date")
}

func TestInstallOntoReferenceCopyKeepsRegions(t *testing.T) {
	f := newFixture(t)
	target := f.target("os_brick", "initiator/connector.py")
	testutil.WriteFile(t, target, referenceConnector)
	require.NoError(t, f.applier.Install(f.matches, []string{"os_brick"}))

	directives, err := f.applier.Catalog.Directives("os_brick", "liberty", "initiator/connector.py")
	require.NoError(t, err)
	want, err := region.ExtractFile(catalog.ReferencePath(f.drivers, "os_brick", "liberty", "initiator/connector.py"), directives)
	require.NoError(t, err)
	got, err := region.ExtractFile(target, directives)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestInstallPreservesMode(t *testing.T) {
	f := newFixture(t)
	target := f.target("nova", "virt/driver.py")
	require.NoError(t, os.Chmod(target, 0o640))
	require.NoError(t, f.applier.Install(f.matches, []string{"nova"}))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestInstallNewFileIsWorldReadable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.applier.Install(f.matches, []string{"os_brick"}))
	info, err := os.Stat(f.target("os_brick", "initiator/storpool.py"))
	require.NoError(t, err)
	assert.Equal(t, NewFileMode, info.Mode().Perm())
}

func TestInstallAppendsMissingClass(t *testing.T) {
	f := newFixture(t)
	target := f.target("os_brick", "initiator/connector.py")
	testutil.WriteFile(t, target, "STORPOOL = \"STORPOOL\"\nLOCAL = \"LOCAL\"\n")
	require.NoError(t, f.applier.Install(f.matches, []string{"os_brick"}))

	got := testutil.ReadFile(t, target)
	assert.True(t, strings.HasPrefix(got, "STORPOOL = \"STORPOOL\"\nSTORPOOL_V2 = \"STORPOOL_V2\"\nLOCAL = \"LOCAL\"\n\n\nclass StorPoolConnector(InitiatorConnector):\n"), got)
	assert.Contains(t, f.out.String(), "1 appended")
}

func TestInstallMissingChunkIsFatal(t *testing.T) {
	f := newFixture(t)
	target := f.target("nova", "virt/driver.py")
	testutil.WriteFile(t, target, "import os\n")
	err := f.applier.Install(f.matches, []string{"nova"})
	require.ErrorIs(t, err, ErrTargetMissingOrStale)
	assert.Equal(t, "import os\n", testutil.ReadFile(t, target))
	assertNoTempFiles(t, filepath.Dir(target))
}

func TestInstallMissingTargetIsFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.target("nova", "virt/driver.py")))
	err := f.applier.Install(f.matches, []string{"nova"})
	assert.ErrorIs(t, err, ErrTargetMissingOrStale)
}

func TestDuplicateMarkerAbortsBeforeWrite(t *testing.T) {
	f := newFixture(t)
	target := f.target("nova", "virt/driver.py")
	dup := liveDriver + "libvirt_volume_drivers = [\n]\n"
	testutil.WriteFile(t, target, dup)

	err := f.applier.Install(f.matches, []string{"nova"})
	require.ErrorIs(t, err, region.ErrDuplicateMatch)
	assert.True(t, IsFatal(err))
	assert.Equal(t, dup, testutil.ReadFile(t, target))

	_, err = f.applier.Check(f.matches, []string{"nova"})
	assert.ErrorIs(t, err, region.ErrDuplicateMatch)
}

func TestCheckReferenceMissingMarker(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, catalog.ReferencePath(f.drivers, "nova", "liberty", "virt/driver.py"), "nothing here\n")
	_, err := f.applier.Check(f.matches, []string{"nova"})
	require.ErrorIs(t, err, ErrCatalogInternal)
	assert.True(t, IsFatal(err))
}

func TestCheckReferenceFileMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(catalog.ReferencePath(f.drivers, "nova", "liberty", "virt/driver.py")))
	_, err := f.applier.Check(f.matches, []string{"nova"})
	assert.ErrorIs(t, err, ErrCatalogInternal)
}

func TestCheckTargetMissingContinues(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.target("os_brick", "initiator/connector.py")))
	require.NoError(t, f.applier.Install(f.matches, []string{"nova"}))

	results, err := f.applier.Check(f.matches, []string{"os_brick", "nova"})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrTargetMissingOrStale)
	assert.True(t, results[1].OK())
}

func TestCheckTargetLacksRegion(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFile(t, f.target("nova", "virt/driver.py"), "import os\n")
	results, err := f.applier.Check(f.matches, []string{"nova"})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrTargetMissingOrStale)
}

func TestCheckNewFileLastByteDiffers(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.applier.Install(f.matches, []string{"os_brick"}))
	target := f.target("os_brick", "initiator/storpool.py")
	testutil.WriteFile(t, target, "# vendor\nprint('storpool')\r")

	results, err := f.applier.Check(f.matches, []string{"os_brick"})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, ErrVerificationMismatch)
	assert.Contains(t, results[0].Message(), "byte 26")
}

func TestCheckNewFileLengthDiffers(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.applier.Install(f.matches, []string{"os_brick"}))
	target := f.target("os_brick", "initiator/storpool.py")
	testutil.WriteFile(t, target, "# vendor\nprint('storpool')\nextra\n")

	results, err := f.applier.Check(f.matches, []string{"os_brick"})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrVerificationMismatch)
}

func TestCheckUnknownComponentMatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.applier.Check(map[string]detect.Match{}, []string{"nova"})
	assert.ErrorIs(t, err, detect.ErrComponentNotDetected)
}

func TestApplierRequiresDependencies(t *testing.T) {
	_, err := (&Applier{}).Check(nil, nil)
	assert.Error(t, err)
	assert.Error(t, (&Applier{}).Install(nil, nil))
}

type recordingInstaller struct {
	calls []string
}

func (r *recordingInstaller) InstallNew(mode os.FileMode, src string, dst string) error {
	r.calls = append(r.calls, "new "+mode.String()+" "+filepath.Base(dst))
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}

func (r *recordingInstaller) Swap(src string, dst string) error {
	r.calls = append(r.calls, "swap "+filepath.Base(dst))
	return os.Rename(src, dst)
}

func TestInstallDelegatesToTransactionalInstaller(t *testing.T) {
	f := newFixture(t)
	rec := &recordingInstaller{}
	f.applier.Installer = rec
	require.NoError(t, f.applier.Install(f.matches, []string{"os_brick"}))

	assert.Equal(t, []string{"swap connector.py", "new -rw-r--r-- storpool.py"}, rec.calls)
	results, err := f.applier.Check(f.matches, []string{"os_brick"})
	require.NoError(t, err)
	assert.True(t, results[0].OK())
	assertNoTempFiles(t, filepath.Dir(f.target("os_brick", "initiator/connector.py")))
}

type failingInstaller struct{}

func (failingInstaller) InstallNew(os.FileMode, string, string) error { return errors.New("txn down") }
func (failingInstaller) Swap(string, string) error                    { return errors.New("txn down") }

func TestInstallInstallerFailureRemovesTemp(t *testing.T) {
	f := newFixture(t)
	f.applier.Installer = failingInstaller{}
	target := f.target("nova", "virt/driver.py")
	err := f.applier.Install(f.matches, []string{"nova"})
	require.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "txn down")
	assert.Equal(t, liveDriver, testutil.ReadFile(t, target))
	assertNoTempFiles(t, filepath.Dir(target))
}

func TestInstallHoldsLock(t *testing.T) {
	f := newFixture(t)
	f.applier.LockPath = filepath.Join(t.TempDir(), "sp-openstack.lock")
	require.NoError(t, f.applier.Install(f.matches, []string{"nova"}))
	_, err := os.Stat(f.applier.LockPath)
	assert.NoError(t, err)
}

func TestVerboseNotesClassAtEOF(t *testing.T) {
	f := newFixture(t)
	f.applier.Verbose = true
	_, err := f.applier.Check(f.matches, []string{"os_brick"})
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "StorPoolConnector")
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrIO))
	assert.True(t, IsFatal(region.ErrUnterminatedRegion))
	assert.False(t, IsFatal(ErrVerificationMismatch))
	assert.False(t, IsFatal(ErrTargetMissingOrStale))
	assert.False(t, IsFatal(io.EOF))
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".sp-openstack-")
	}
}
