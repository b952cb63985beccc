package analyze

import (
	"path/filepath"
	"strings"

	"github.com/diskray/diskray/internal/scan"
)

// Category classifies files by what they are used for.
type Category uint8

// File categories, roughly by how often users ask about them.
const (
	CategoryDocuments Category = iota
	CategoryImages
	CategoryVideos
	CategoryAudio
	CategoryArchives
	CategoryExecutables
	CategoryCode
	CategoryData
	CategoryHidden
	CategorySystem
	CategoryOther
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategoryDocuments:
		return "documents"
	case CategoryImages:
		return "images"
	case CategoryVideos:
		return "videos"
	case CategoryAudio:
		return "audio"
	case CategoryArchives:
		return "archives"
	case CategoryExecutables:
		return "executables"
	case CategoryCode:
		return "code"
	case CategoryData:
		return "data"
	case CategoryHidden:
		return "hidden"
	case CategorySystem:
		return "system"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler for JSON output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// extCategories maps lowercased extensions (with dot) to categories.
// Extensions claimed by an earlier category keep it: ".json" is code,
// not data, matching lookup order in the original table.
var extCategories = buildExtCategories()

func buildExtCategories() map[string]Category {
	table := []struct {
		category Category
		exts     []string
	}{
		{CategoryDocuments, []string{
			"pdf", "doc", "docx", "txt", "rtf", "odt", "pages",
			"xls", "xlsx", "csv", "ods", "numbers", "ppt", "pptx",
			"key", "md", "tex", "epub", "mobi",
		}},
		{CategoryImages, []string{
			"jpg", "jpeg", "png", "gif", "bmp", "tiff", "svg",
			"webp", "raw", "ico", "psd", "ai", "eps",
		}},
		{CategoryVideos, []string{
			"mp4", "avi", "mkv", "mov", "wmv", "flv", "m4v",
			"mpg", "mpeg", "webm", "3gp", "m2ts",
		}},
		{CategoryAudio, []string{
			"mp3", "wav", "flac", "aac", "ogg", "wma", "m4a",
			"opus", "aiff", "alac",
		}},
		{CategoryArchives, []string{
			"zip", "rar", "7z", "tar", "gz", "bz2", "xz",
			"iso", "dmg", "pkg", "deb", "rpm",
		}},
		{CategoryExecutables, []string{
			"exe", "dll", "so", "dylib", "app", "msi", "bat",
			"sh", "bin", "jar", "apk", "ipa",
		}},
		{CategoryCode, []string{
			"rs", "py", "js", "ts", "java", "cpp", "c", "h",
			"cs", "go", "php", "rb", "swift", "kt", "scala",
			"html", "css", "json", "xml", "yml", "yaml", "toml",
		}},
		{CategoryData, []string{
			"db", "sqlite", "sql", "mdb", "accdb",
			"tsv", "parquet", "feather", "hdf5",
		}},
	}

	m := make(map[string]Category)

	for _, group := range table {
		for _, ext := range group.exts {
			if _, ok := m["."+ext]; !ok {
				m["."+ext] = group.category
			}
		}
	}

	return m
}

// systemMarkers are path fragments that mark build or VCS internals.
var systemMarkers = []string{"node_modules", "target/", ".git/"}

// Categorize classifies a file entry by extension, falling back to
// hidden and system heuristics.
func Categorize(e scan.Entry) Category {
	if cat, ok := extCategories[e.Ext]; ok {
		return cat
	}

	if strings.HasPrefix(filepath.Base(e.Path), ".") {
		return CategoryHidden
	}

	slashed := filepath.ToSlash(e.Path)
	for _, marker := range systemMarkers {
		if strings.Contains(slashed, marker) {
			return CategorySystem
		}
	}

	return CategoryOther
}
