package tool

import (
	"encoding/json"
	"io/fs"

	"github.com/invopop/jsonschema"
)

// Entry types reported by the local content tools.
const (
	EntryTypeFile = "FILE"
	EntryTypeDir  = "DIR"
)

// FileEntry describes one file or directory of the local tree.
type FileEntry struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Type         string `json:"type" jsonschema:"enum=FILE,enum=DIR"`
	Size         *int64 `json:"size,omitempty"`          // files only
	LastModified *int64 `json:"last_modified,omitempty"` // epoch milliseconds
}

func newFileEntry(path string, info fs.FileInfo) FileEntry {
	modified := info.ModTime().UnixMilli()
	entry := FileEntry{
		Name:         info.Name(),
		Path:         path,
		Type:         EntryTypeFile,
		LastModified: &modified,
	}
	if info.IsDir() {
		entry.Type = EntryTypeDir
	} else {
		size := info.Size()
		entry.Size = &size
	}
	return entry
}

type SearchResult struct {
	Matches []FileEntry `json:"matches"`
	Count   int         `json:"count"`
}

// FileContent is a read result. Content is omitted for binary files and
// Size then counts bytes instead of characters.
type FileContent struct {
	Path     string  `json:"path"`
	Content  *string `json:"content,omitempty"`
	IsBinary bool    `json:"is_binary"`
	Size     int     `json:"size"`
}

type ListResult struct {
	Entries []FileEntry `json:"entries"`
	Count   int         `json:"count"`
}

type WriteResult struct {
	Message      string `json:"message"`
	Path         string `json:"path"`
	BytesWritten int    `json:"bytes_written"`
}

type GrepMatch struct {
	LineNumber    int      `json:"line_number"`
	Match         string   `json:"match"`
	ContextBefore []string `json:"context_before"`
	ContextAfter  []string `json:"context_after"`
}

type GrepFileResult struct {
	File    string      `json:"file"`
	Matches []GrepMatch `json:"matches"`
}

// GrepResult aggregates per-file matches. Build it with newGrepResult so
// the counts always agree with FileMatches.
type GrepResult struct {
	Pattern          string           `json:"pattern"`
	Directory        string           `json:"directory"`
	FileMatches      []GrepFileResult `json:"file_matches"`
	FilesWithMatches int              `json:"files_with_matches"`
	TotalMatches     int              `json:"total_matches"`
}

func newGrepResult(pattern, directory string, files []GrepFileResult) GrepResult {
	if files == nil {
		files = []GrepFileResult{}
	}
	total := 0
	for _, f := range files {
		total += len(f.Matches)
	}
	return GrepResult{
		Pattern:          pattern,
		Directory:        directory,
		FileMatches:      files,
		FilesWithMatches: len(files),
		TotalMatches:     total,
	}
}

// RemoteSize is a size that may be unknown. It marshals as a JSON number
// when known and as the "unknown_size" sentinel otherwise.
type RemoteSize struct {
	Value int
	Known bool
}

func (s RemoteSize) MarshalJSON() ([]byte, error) {
	if !s.Known {
		return json.Marshal(unknown("size"))
	}
	return json.Marshal(s.Value)
}

func (RemoteSize) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "string", Enum: []any{unknown("size")}},
		},
	}
}

// RemoteContentEntry is a file or directory of a remote repository with
// every missing attribute replaced by an unknown_<attr> sentinel.
type RemoteContentEntry struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	SHA         string     `json:"sha"`
	Size        RemoteSize `json:"size"`
	Type        string     `json:"type" jsonschema:"enum=file,enum=directory"`
	URL         string     `json:"url"`
	DownloadURL *string    `json:"download_url,omitempty"`
}

type RemoteFile struct {
	RemoteContentEntry
	Content string `json:"content"`
}

type RemoteFileResult struct {
	File RemoteFile `json:"file"`
}

type RemoteDirectoryResult struct {
	Contents []RemoteContentEntry `json:"contents"`
	Path     string               `json:"path"`
}

type CodeSearchItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Repository  string `json:"repository"`
	HTMLURL     string `json:"html_url"`
	TextMatches string `json:"text_matches"`
}

type CodeSearchResult struct {
	Items []CodeSearchItem `json:"items"`
	Count int              `json:"count"`
	Query string           `json:"query"`
}

type MemorizeResult struct {
	Status string `json:"status"`
}

type RecallResult struct {
	Key   string         `json:"key,omitempty"`
	Value any            `json:"value,omitempty"`
	Found bool           `json:"found"`
	State map[string]any `json:"state,omitempty"`
}
