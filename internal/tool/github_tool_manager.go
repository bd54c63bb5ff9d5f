package tool

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fpt/codeassist/internal/config"
	"github.com/fpt/codeassist/internal/metrics"
	"github.com/fpt/codeassist/pkg/domain"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/message"
)

const (
	RemoteTypeFile      = "file"
	RemoteTypeDirectory = "directory"

	defaultSearchLimit        = 20
	maxSearchPageSize         = 100
	previewLength             = 200
	defaultPreviewConcurrency = 4

	errTokenMissing    = "GitHub token not configured. Set GITHUB_TOKEN environment variable."
	previewUnavailable = "[Content unavailable]"
)

// BackendDetector chooses the remote backend once per process.
type BackendDetector interface {
	Detect() (domain.RemoteProvider, bool)
	Selected() string
}

// GitHubToolManager exposes read-only access to GitHub repositories through
// whichever backend the detector selects.
type GitHubToolManager struct {
	registry

	cfg                config.GitHubConfig
	detector           BackendDetector
	previewConcurrency int
}

// NewGitHubToolManager creates the GitHub tools. cfg is read once here and
// never re-read from the environment.
func NewGitHubToolManager(cfg config.GitHubConfig, detector BackendDetector, previewConcurrency int) *GitHubToolManager {
	if previewConcurrency <= 0 {
		previewConcurrency = defaultPreviewConcurrency
	}
	m := &GitHubToolManager{
		registry:           newRegistry(),
		cfg:                cfg,
		detector:           detector,
		previewConcurrency: previewConcurrency,
	}
	m.register()
	return m
}

func (m *GitHubToolManager) register() {
	m.RegisterTool("github_get_file_contents", "Get the decoded contents and metadata of a file in a GitHub repository",
		[]message.ToolArgument{
			{Name: "path", Description: "Path of the file relative to the repository root", Required: true, Type: "string"},
			{Name: "repository", Description: "Repository as owner/name (defaults to GITHUB_REPOSITORY)", Required: false, Type: "string"},
			{Name: "ref", Description: "Branch, tag or commit SHA (defaults to the default branch)", Required: false, Type: "string"},
		}, m.handleGetFileContents)

	m.RegisterTool("github_list_directory_contents", "List the files and directories at a path of a GitHub repository",
		[]message.ToolArgument{
			{Name: "repository", Description: "Repository as owner/name (defaults to GITHUB_REPOSITORY)", Required: false, Type: "string"},
			{Name: "path", Description: "Directory path; empty or / for the repository root", Required: false, Type: "string"},
			{Name: "ref", Description: "Branch, tag or commit SHA (defaults to the default branch)", Required: false, Type: "string"},
		}, m.handleListDirectoryContents)

	m.RegisterTool("github_search_code", "Search code on GitHub, optionally within one repository or file extension",
		[]message.ToolArgument{
			{Name: "query", Description: "Search query", Required: true, Type: "string"},
			{Name: "repository", Description: "Restrict the search to owner/name", Required: false, Type: "string"},
			{Name: "extension", Description: "Restrict the search to a file extension, e.g. go", Required: false, Type: "string"},
			{Name: "limit", Description: "Maximum number of results (default 20)", Required: false, Type: "number"},
		}, m.handleSearchCode)
}

// AnnotateTools reports the selected backend next to each tool description.
func (m *GitHubToolManager) AnnotateTools() map[message.ToolName]string {
	status := "backend: unavailable"
	if _, ok := m.detector.Detect(); ok {
		status = "backend: " + m.detector.Selected()
	}
	annotations := make(map[message.ToolName]string, len(m.tools))
	for name := range m.tools {
		annotations[name] = status
	}
	return annotations
}

func (m *GitHubToolManager) provider() (domain.RemoteProvider, error) {
	p, ok := m.detector.Detect()
	metrics.SetRemoteBackend(m.detector.Selected())
	if !ok {
		return nil, message.Errorf(message.KindCapabilityUnavailable,
			"GitHub functionality is not available. Install the gh CLI or enable the go-github backend in settings.")
	}
	return p, nil
}

func (m *GitHubToolManager) requireToken() error {
	if m.cfg.Token == "" {
		return message.Errorf(message.KindConfiguration, errTokenMissing)
	}
	return nil
}

func (m *GitHubToolManager) resolveRepository(override string) (string, error) {
	repo := m.cfg.ResolveRepository(override)
	if repo == "" {
		return "", message.Errorf(message.KindConfiguration, "Repository name is required")
	}
	if _, _, err := domain.SplitRepository(repo); err != nil {
		return "", message.WithKind(err, message.KindConfiguration)
	}
	return repo, nil
}

func (m *GitHubToolManager) connect(p domain.RemoteProvider) (domain.RemoteClient, error) {
	client, err := p.Connect(m.cfg.Credentials())
	if err != nil {
		return nil, message.WrapErrorf(err, message.KindUnexpected, "failed to create GitHub client")
	}
	return client, nil
}

// session runs the checks shared by the repository-scoped operations:
// backend, token and repository, before any connection is made.
func (m *GitHubToolManager) session(repository string, validate func() error) (domain.RemoteClient, string, error) {
	p, err := m.provider()
	if err != nil {
		return nil, "", err
	}
	if validate != nil {
		if err := validate(); err != nil {
			return nil, "", err
		}
	}
	if err := m.requireToken(); err != nil {
		return nil, "", err
	}
	repo, err := m.resolveRepository(repository)
	if err != nil {
		return nil, "", err
	}
	client, err := m.connect(p)
	if err != nil {
		return nil, "", err
	}
	return client, repo, nil
}

// contentsError distinguishes a missing repository from a missing path by
// asking for the repository only after the contents lookup 404s.
func contentsError(ctx context.Context, client domain.RemoteClient, repo string, err error, notFound, accessing string) error {
	if !errors.Is(err, domain.ErrRemoteNotFound) {
		return message.WrapErrorf(err, message.KindUnexpected, "%s", accessing)
	}
	if _, repoErr := client.GetRepo(ctx, repo); errors.Is(repoErr, domain.ErrRemoteNotFound) {
		return message.Errorf(message.KindNotFound, "Repository not found: %s", repo)
	}
	return message.Errorf(message.KindNotFound, "%s", notFound)
}

func normalizeRemotePath(path string) string {
	return strings.TrimLeft(path, "/")
}

// GetFile returns one file with its decoded content.
func (m *GitHubToolManager) GetFile(ctx context.Context, path, repository, ref string) message.Result[RemoteFileResult] {
	path = normalizeRemotePath(path)
	client, repo, err := m.session(repository, func() error {
		if path == "" {
			return message.Errorf(message.KindConfiguration, "File path is required")
		}
		return nil
	})
	if err != nil {
		return message.Fail[RemoteFileResult](err)
	}

	file, _, err := client.GetContents(ctx, repo, path, ref)
	if err != nil {
		return message.Fail[RemoteFileResult](contentsError(ctx, client, repo, err,
			"File not found in repository: "+path, "Error accessing file "+path))
	}
	if file == nil {
		return message.Fail[RemoteFileResult](message.Errorf(message.KindWrongKind, "Path points to a directory, not a file"))
	}

	entry := projectEntry(file, false)
	logger.DebugWithIntention(pkgLogger.IntentionRemote, "Fetched remote file", "repository", repo, "path", path)
	return message.OK(RemoteFileResult{File: RemoteFile{
		RemoteContentEntry: entry,
		Content:            decodeContent(file),
	}})
}

// ListDirectory returns the entries of a directory; an empty path is the
// repository root.
func (m *GitHubToolManager) ListDirectory(ctx context.Context, repository, path, ref string) message.Result[RemoteDirectoryResult] {
	path = normalizeRemotePath(path)
	client, repo, err := m.session(repository, nil)
	if err != nil {
		return message.Fail[RemoteDirectoryResult](err)
	}

	file, dir, err := client.GetContents(ctx, repo, path, ref)
	if err != nil {
		return message.Fail[RemoteDirectoryResult](contentsError(ctx, client, repo, err,
			"Directory not found in repository: "+path, "Error accessing directory "+path))
	}
	if file != nil {
		return message.Fail[RemoteDirectoryResult](message.Errorf(message.KindWrongKind, "Path '%s' points to a file, not a directory", path))
	}

	contents := make([]RemoteContentEntry, 0, len(dir))
	for _, obj := range dir {
		contents = append(contents, projectEntry(obj, true))
	}
	return message.OK(RemoteDirectoryResult{Contents: contents, Path: path})
}

// SearchCode runs a code search and stops pulling results at the limit.
// The search is scoped to a repository only when one is passed. A page
// error after some hits were collected ends the search with those hits.
// Previews are fetched concurrently and never fail the search.
func (m *GitHubToolManager) SearchCode(ctx context.Context, query, repository, extension string, limit int) message.Result[CodeSearchResult] {
	p, err := m.provider()
	if err != nil {
		return message.Fail[CodeSearchResult](err)
	}
	if strings.TrimSpace(query) == "" {
		return message.Fail[CodeSearchResult](message.Errorf(message.KindConfiguration, "Search query is required"))
	}
	if err := m.requireToken(); err != nil {
		return message.Fail[CodeSearchResult](err)
	}
	client, err := m.connect(p)
	if err != nil {
		return message.Fail[CodeSearchResult](err)
	}

	q := buildSearchQuery(query, strings.TrimSpace(repository), extension)
	capacity := limit
	if capacity <= 0 {
		capacity = defaultSearchLimit
	}

	hits := make([]*domain.RemoteCodeHit, 0, capacity)
	for hit, err := range client.SearchCode(ctx, q, min(capacity, maxSearchPageSize)) {
		if err != nil {
			if len(hits) == 0 {
				return message.Fail[CodeSearchResult](message.WrapErrorf(err, message.KindUnexpected, "Unexpected error"))
			}
			logger.WarnWithIntention(pkgLogger.IntentionWarning, "Code search stopped early, returning partial results",
				"query", q, "collected", len(hits), "error", err)
			break
		}
		hits = append(hits, hit)
		if len(hits) >= capacity {
			break
		}
	}

	items := make([]CodeSearchItem, len(hits))
	var g errgroup.Group
	g.SetLimit(m.previewConcurrency)
	for i, hit := range hits {
		items[i] = projectCodeHit(hit)
		g.Go(func() error {
			items[i].TextMatches = fetchPreview(ctx, client, hit)
			return nil
		})
	}
	_ = g.Wait()

	logger.DebugWithIntention(pkgLogger.IntentionRemote, "Code search finished", "query", q, "count", len(items))
	return message.OK(CodeSearchResult{Items: items, Count: len(items), Query: q})
}

// buildSearchQuery appends repo: and extension: qualifiers when given.
func buildSearchQuery(query, repository, extension string) string {
	var b strings.Builder
	b.WriteString(query)
	if repository != "" {
		b.WriteString(" repo:" + repository)
	}
	if extension != "" {
		b.WriteString(" extension:" + extension)
	}
	return b.String()
}

func fetchPreview(ctx context.Context, client domain.RemoteClient, hit *domain.RemoteCodeHit) string {
	if hit.Repository == nil || hit.Path == nil {
		return previewUnavailable
	}
	file, _, err := client.GetContents(ctx, *hit.Repository, *hit.Path, "")
	if err != nil || file == nil {
		return previewUnavailable
	}
	text, err := file.DecodedContent()
	if err != nil || !utf8.ValidString(text) {
		return previewUnavailable
	}
	runes := []rune(text)
	if len(runes) > previewLength {
		return string(runes[:previewLength]) + "..."
	}
	return text
}

func unknown(attr string) string {
	return "unknown_" + attr
}

// orUnknown substitutes the sentinel when the backend did not report attr.
func orUnknown(v *string, attr string) string {
	if v == nil {
		return unknown(attr)
	}
	return *v
}

// firstSet returns the first non-empty value, or the sentinel for attr.
func firstSet(attr string, values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return unknown(attr)
}

// projectEntry maps a backend object onto the uniform entry shape. Inside a
// listing only "dir" objects are directories; directories carry no
// download_url.
func projectEntry(obj *domain.RemoteObject, inListing bool) RemoteContentEntry {
	entry := RemoteContentEntry{
		Name: orUnknown(obj.Name, "name"),
		Path: orUnknown(obj.Path, "path"),
		SHA:  orUnknown(obj.SHA, "sha"),
		Type: RemoteTypeFile,
		URL:  firstSet("url", obj.HTMLURL, obj.URL),
	}
	if obj.Size != nil {
		entry.Size = RemoteSize{Value: *obj.Size, Known: true}
	}
	if inListing && obj.Type != nil && *obj.Type == "dir" {
		entry.Type = RemoteTypeDirectory
		return entry
	}
	downloadURL := firstSet("download_url", obj.DownloadURL)
	entry.DownloadURL = &downloadURL
	return entry
}

func projectCodeHit(hit *domain.RemoteCodeHit) CodeSearchItem {
	return CodeSearchItem{
		Name:        orUnknown(hit.Name, "name"),
		Path:        orUnknown(hit.Path, "path"),
		SHA:         orUnknown(hit.SHA, "sha"),
		Repository:  firstSet("repository", hit.Repository),
		HTMLURL:     firstSet("url", hit.HTMLURL),
		TextMatches: previewUnavailable,
	}
}

// decodeContent never fails; decoding problems become an inline marker.
func decodeContent(obj *domain.RemoteObject) string {
	text, err := obj.DecodedContent()
	if err == nil && !utf8.ValidString(text) {
		err = errors.New("content is not valid UTF-8")
	}
	if err != nil {
		logger.DebugWithIntention(pkgLogger.IntentionRemote, "Remote content could not be decoded", "error", err)
		return fmt.Sprintf("[Content decoding failed: %v]", err)
	}
	return text
}

func (m *GitHubToolManager) handleGetFileContents(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	path, _ := stringArg(args, "path")
	repository, _ := stringArg(args, "repository")
	ref, _ := stringArg(args, "ref")
	return m.GetFile(ctx, path, repository, ref).ToolResult(), nil
}

func (m *GitHubToolManager) handleListDirectoryContents(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	repository, _ := stringArg(args, "repository")
	path, _ := stringArg(args, "path")
	ref, _ := stringArg(args, "ref")
	return m.ListDirectory(ctx, repository, path, ref).ToolResult(), nil
}

func (m *GitHubToolManager) handleSearchCode(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	query, _ := stringArg(args, "query")
	repository, _ := stringArg(args, "repository")
	extension, _ := stringArg(args, "extension")
	return m.SearchCode(ctx, query, repository, extension, intArg(args, "limit", 0)).ToolResult(), nil
}

func (m *GitHubToolManager) ResultTypes() map[message.ToolName]any {
	return map[message.ToolName]any{
		"github_get_file_contents":       RemoteFileResult{},
		"github_list_directory_contents": RemoteDirectoryResult{},
		"github_search_code":             CodeSearchResult{},
	}
}
