package analyze

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskray/diskray/internal/scan"
)

// fileEntry mimics what the walker emits for a regular file.
func fileEntry(path string, size int64, modTime time.Time) scan.Entry {
	return scan.Entry{
		Path:    path,
		Kind:    scan.KindFile,
		Size:    size,
		ModTime: modTime,
		Ext:     strings.ToLower(filepath.Ext(path)),
	}
}

func TestCategorize(t *testing.T) {
	now := time.Now()

	tests := []struct {
		path string
		want Category
	}{
		{"/home/u/photo.jpg", CategoryImages},
		{"/home/u/movie.MKV", CategoryVideos},
		{"/home/u/main.go", CategoryCode},
		{"/home/u/report.pdf", CategoryDocuments},
		{"/home/u/song.flac", CategoryAudio},
		{"/home/u/backup.tar", CategoryArchives},
		{"/home/u/tool.exe", CategoryExecutables},
		{"/home/u/readings.parquet", CategoryData},
		{"/home/u/.bashrc", CategoryHidden},
		{"/repo/node_modules/pkg/index", CategorySystem},
		{"/home/u/mystery", CategoryOther},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Categorize(fileEntry(tc.path, 1, now)), "path %s", tc.path)
	}
}

func TestJSONExtensionIsCode(t *testing.T) {
	// .json appears in both the code and data tables; first claim wins.
	e := fileEntry("/x/config.json", 1, time.Now())
	assert.Equal(t, CategoryCode, Categorize(e))
}

func TestAnalyzerCategoryStats(t *testing.T) {
	a := New(10)
	now := time.Now()

	a.Observe(fileEntry("/x/a.jpg", 60, now))
	a.Observe(fileEntry("/x/b.jpg", 20, now))
	a.Observe(fileEntry("/x/c.go", 20, now))

	report := a.Report(100)

	require.Len(t, report.Categories, 2)
	assert.Equal(t, CategoryImages, report.Categories[0].Category)
	assert.Equal(t, int64(2), report.Categories[0].Files)
	assert.Equal(t, int64(80), report.Categories[0].Bytes)
	assert.InDelta(t, 80.0, report.Categories[0].Percent, 0.01)

	assert.Equal(t, CategoryCode, report.Categories[1].Category)
	assert.InDelta(t, 20.0, report.Categories[1].Percent, 0.01)
}

func TestAnalyzerDuplicateGroups(t *testing.T) {
	a := New(10)
	now := time.Now()

	a.Observe(fileEntry("/x/one.bin", 100, now))
	a.Observe(fileEntry("/x/two.bin", 100, now))
	a.Observe(fileEntry("/x/three.bin", 100, now))
	a.Observe(fileEntry("/x/lonely.bin", 50, now))
	a.Observe(fileEntry("/x/empty.bin", 0, now))
	a.Observe(fileEntry("/x/empty2.bin", 0, now))

	report := a.Report(350)

	// Zero-size files never form a group; singletons are dropped.
	require.Len(t, report.Duplicates, 1)
	assert.Equal(t, int64(100), report.Duplicates[0].Size)
	assert.Equal(t, []string{"/x/one.bin", "/x/three.bin", "/x/two.bin"}, report.Duplicates[0].Paths)
}

func TestAnalyzerOldFiles(t *testing.T) {
	a := New(10)
	now := time.Now()

	a.Observe(fileEntry("/x/ancient.log", 1, now.AddDate(-3, 0, 0)))
	a.Observe(fileEntry("/x/older.log", 1, now.AddDate(-2, 0, 0)))
	a.Observe(fileEntry("/x/fresh.log", 1, now))

	report := a.Report(3)

	require.Len(t, report.OldFiles, 2)
	assert.Equal(t, "/x/ancient.log", report.OldFiles[0].Path)
	assert.Equal(t, "/x/older.log", report.OldFiles[1].Path)
}

func TestAnalyzerIgnoresNonFiles(t *testing.T) {
	a := New(10)

	a.Observe(scan.Entry{Path: "/x/dir", Kind: scan.KindDir})
	a.Observe(scan.Entry{Path: "/x/bad.txt", Kind: scan.KindFile, Err: assert.AnError})

	report := a.Report(0)
	assert.Empty(t, report.Categories)
}

func TestAnalyzerBoundsReport(t *testing.T) {
	a := New(2)
	now := time.Now().AddDate(-2, 0, 0)

	for i := 0; i < 5; i++ {
		a.Observe(fileEntry("/x/old"+string(rune('a'+i))+".txt", int64(10+i), now))
	}

	report := a.Report(100)
	assert.Len(t, report.OldFiles, 2)
}
