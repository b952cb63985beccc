package scan

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSized creates a file of the given size, making parents as needed.
func writeSized(t *testing.T, path string, size int) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0o644))
}

// scenarioTree builds dirA/{f1=10,f2=20} and dirB/{f3=5} under a temp
// root and returns the root.
func scenarioTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeSized(t, filepath.Join(root, "dirA", "f1.txt"), 10)
	writeSized(t, filepath.Join(root, "dirA", "f2.txt"), 20)
	writeSized(t, filepath.Join(root, "dirB", "f3.dat"), 5)

	return root
}

// bigTree builds a tree wide and deep enough that a scan cannot finish
// before the test reacts.
func bigTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			for k := 0; k < 6; k++ {
				dir := filepath.Join(root,
					fmt.Sprintf("d%d", i), fmt.Sprintf("d%d", j), fmt.Sprintf("d%d", k))
				writeSized(t, filepath.Join(dir, "a.bin"), 1)
				writeSized(t, filepath.Join(dir, "b.bin"), 2)
			}
		}
	}

	return root
}

// findNode locates a node by path in a snapshot tree.
func findNode(n *DirNode, path string) *DirNode {
	if n.Path == path {
		return n
	}

	for _, child := range n.Children {
		if found := findNode(child, path); found != nil {
			return found
		}
	}

	return nil
}

func mustScan(t *testing.T, cfg Config) *Snapshot {
	t.Helper()

	controller, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, controller.Start(context.Background()))
	require.Equal(t, StateCompleted, controller.Wait())

	return controller.Snapshot()
}

func TestScanScenario(t *testing.T) {
	root := scenarioTree(t)

	snap := mustScan(t, Config{RootPaths: []string{root}})

	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, int64(3), snap.Files)
	assert.Equal(t, int64(35), snap.Bytes)
	assert.Equal(t, int64(0), snap.Errors)

	require.Len(t, snap.Roots, 1)
	rootNode := snap.Roots[0]
	assert.Equal(t, int64(35), rootNode.CumulativeSize)

	dirA := findNode(rootNode, filepath.Join(rootNode.Path, "dirA"))
	require.NotNil(t, dirA)
	assert.Equal(t, int64(30), dirA.CumulativeSize)
	assert.Equal(t, int64(2), dirA.FileCount)

	dirB := findNode(rootNode, filepath.Join(rootNode.Path, "dirB"))
	require.NotNil(t, dirB)
	assert.Equal(t, int64(5), dirB.CumulativeSize)

	assert.Equal(t, ExtStat{Count: 2, Bytes: 30}, rootNode.ExtStats[".txt"])
	assert.Equal(t, ExtStat{Count: 1, Bytes: 5}, rootNode.ExtStats[".dat"])

	checkSizeInvariant(t, rootNode)
}

func TestScanIdempotent(t *testing.T) {
	root := scenarioTree(t)
	cfg := Config{RootPaths: []string{root}}

	first := mustScan(t, cfg)
	second := mustScan(t, cfg)

	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, first.Bytes, second.Bytes)
	assert.Equal(t, first.Dirs, second.Dirs)
	assert.Equal(t, first.Roots[0].CumulativeSize, second.Roots[0].CumulativeSize)
	assert.Equal(t, first.Roots[0].ExtStats, second.Roots[0].ExtStats)
}

func TestSymlinkCycleTerminates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	writeSized(t, filepath.Join(root, "a.txt"), 1)
	writeSized(t, filepath.Join(root, "dirA", "b.txt"), 2)
	require.NoError(t, os.Symlink(root, filepath.Join(root, "dirA", "loop")))

	for _, follow := range []bool{false, true} {
		snap := mustScan(t, Config{RootPaths: []string{root}, FollowSymlinks: follow})

		assert.Equal(t, int64(2), snap.Files, "follow=%v", follow)
		assert.Equal(t, int64(3), snap.Bytes, "follow=%v", follow)
		checkSizeInvariant(t, snap.Roots[0])
	}
}

func TestFollowSymlinksDeduplicatesTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	writeSized(t, filepath.Join(root, "real", "payload.bin"), 100)
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))

	snap := mustScan(t, Config{RootPaths: []string{root}, FollowSymlinks: true})

	// The aliased directory must be counted exactly once.
	assert.Equal(t, int64(1), snap.Files)
	assert.Equal(t, int64(100), snap.Bytes)
}

func TestCancelMidScan(t *testing.T) {
	root := bigTree(t)

	controller, err := New(Config{RootPaths: []string{root}})
	require.NoError(t, err)
	require.NoError(t, controller.Start(context.Background()))

	controller.Cancel()
	controller.Cancel() // idempotent

	state := controller.Wait()
	assert.Equal(t, StateCancelled, state)

	snap := controller.Snapshot()
	require.Len(t, snap.Roots, 1)
	checkSizeInvariant(t, snap.Roots[0])
	assert.LessOrEqual(t, snap.Bytes, int64(6*6*6*3))
}

func TestCancelAfterCompletionIsNoop(t *testing.T) {
	root := scenarioTree(t)

	controller, err := New(Config{RootPaths: []string{root}})
	require.NoError(t, err)
	require.NoError(t, controller.Start(context.Background()))
	require.Equal(t, StateCompleted, controller.Wait())

	controller.Cancel()

	assert.Equal(t, StateCompleted, controller.State())
}

func TestExternalContextCancelStopsScan(t *testing.T) {
	root := bigTree(t)

	controller, err := New(Config{RootPaths: []string{root}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, controller.Start(ctx))

	cancel()

	state := controller.Wait()
	assert.Contains(t, []State{StateCancelled, StateCompleted}, state)
}

func TestSnapshotDuringScan(t *testing.T) {
	root := bigTree(t)

	controller, err := New(Config{RootPaths: []string{root}})
	require.NoError(t, err)
	require.NoError(t, controller.Start(context.Background()))

	// Mid-scan snapshots must be consistent regardless of progress.
	for i := 0; i < 5; i++ {
		snap := controller.Snapshot()
		if len(snap.Roots) > 0 {
			checkSizeInvariant(t, snap.Roots[0])
		}
	}

	require.Equal(t, StateCompleted, controller.Wait())

	final := controller.Snapshot()
	assert.Equal(t, int64(6*6*6*2), final.Files)
	assert.Equal(t, int64(6*6*6*3), final.Bytes)
}

func TestStartWhileRunning(t *testing.T) {
	root := bigTree(t)

	controller, err := New(Config{RootPaths: []string{root}})
	require.NoError(t, err)
	require.NoError(t, controller.Start(context.Background()))

	err = controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	controller.Cancel()
	controller.Wait()
}

func TestFailedRootThenRestart(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	controller, err := New(Config{RootPaths: []string{missing}})
	require.NoError(t, err)

	err = controller.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, controller.State())
	assert.Error(t, controller.Err())

	// A terminal state accepts a fresh start with new roots.
	good := scenarioTree(t)
	require.NoError(t, controller.Start(context.Background(), good))
	assert.Equal(t, StateCompleted, controller.Wait())
	assert.NoError(t, controller.Err())
	assert.Equal(t, int64(3), controller.Snapshot().Files)
}

func TestRootIsFileFails(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	writeSized(t, file, 1)

	controller, err := New(Config{RootPaths: []string{file}})
	require.NoError(t, err)

	require.Error(t, controller.Start(context.Background()))
	assert.Equal(t, StateFailed, controller.State())
}

func TestNoRootsFails(t *testing.T) {
	controller, err := New(Config{})
	require.NoError(t, err)

	err = controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoRoots)
	assert.Equal(t, StateFailed, controller.State())
}

func TestTopKConfig(t *testing.T) {
	root := t.TempDir()

	for name, size := range map[string]int{"a": 100, "b": 50, "c": 200, "d": 10} {
		writeSized(t, filepath.Join(root, name+".bin"), size)
	}

	snap := mustScan(t, Config{RootPaths: []string{root}, TopKFiles: 2})

	require.Len(t, snap.TopFiles, 2)
	assert.Equal(t, int64(200), snap.TopFiles[0].Size)
	assert.Equal(t, int64(100), snap.TopFiles[1].Size)
}

func TestMinSizeFilter(t *testing.T) {
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "small.txt"), 10)
	writeSized(t, filepath.Join(root, "large.txt"), 20)

	snap := mustScan(t, Config{RootPaths: []string{root}, MinSize: 15})

	assert.Equal(t, int64(1), snap.Files)
	assert.Equal(t, int64(20), snap.Bytes)
}

func TestExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeSized(t, filepath.Join(root, "keep", "a.txt"), 10)
	writeSized(t, filepath.Join(root, "skipme", "b.txt"), 20)

	snap := mustScan(t, Config{
		RootPaths: []string{root},
		Excludes:  []string{`.*skipme.*`},
	})

	assert.Equal(t, int64(1), snap.Files)
	assert.Equal(t, int64(10), snap.Bytes)
}

func TestBadExcludePatternRejectedAtNew(t *testing.T) {
	_, err := New(Config{RootPaths: []string{"."}, Excludes: []string{`[`}})
	assert.Error(t, err)
}

func TestOverlappingRootsDeduplicated(t *testing.T) {
	root := scenarioTree(t)

	snap := mustScan(t, Config{RootPaths: []string{root, root}})

	require.Len(t, snap.Roots, 1)
	assert.Equal(t, int64(3), snap.Files)
	assert.Equal(t, int64(35), snap.Bytes)
}

func TestPermissionErrorsCounted(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("chmod-based permission denial is unix-only")
	}

	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}

	root := t.TempDir()
	writeSized(t, filepath.Join(root, "ok.txt"), 5)

	denied := filepath.Join(root, "denied")
	writeSized(t, filepath.Join(denied, "hidden.txt"), 7)
	require.NoError(t, os.Chmod(denied, 0o000))

	t.Cleanup(func() { _ = os.Chmod(denied, 0o755) })

	snap := mustScan(t, Config{RootPaths: []string{root}})

	// The scan completes; the unreadable directory is an error, not a
	// failure.
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, int64(1), snap.Files)
	assert.Greater(t, snap.Errors, int64(0))
	assert.NotEmpty(t, snap.PathErrors)
}

func TestMultipleRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeSized(t, filepath.Join(rootA, "a.txt"), 10)
	writeSized(t, filepath.Join(rootB, "b.txt"), 20)

	snap := mustScan(t, Config{RootPaths: []string{rootA, rootB}})

	require.Len(t, snap.Roots, 2)
	assert.Equal(t, int64(2), snap.Files)
	assert.Equal(t, int64(30), snap.Bytes)
}
