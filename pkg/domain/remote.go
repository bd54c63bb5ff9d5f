package domain

import (
	"context"
	"encoding/base64"
	"iter"
	"strings"

	"github.com/pkg/errors"
)

// ErrRemoteNotFound is returned by RemoteClient implementations when the
// requested repository or path does not exist.
var ErrRemoteNotFound = errors.New("remote object not found")

// RemoteCredentials is what a backend needs to open a session.
type RemoteCredentials struct {
	Token      string
	APIBaseURL string // empty means the public API
}

// RemoteRepo identifies a repository on the remote host.
type RemoteRepo struct {
	FullName      string
	DefaultBranch string
}

// RemoteObject is a file or directory entry as a backend reports it.
// A nil field means the backend did not expose that attribute.
type RemoteObject struct {
	Name        *string
	Path        *string
	SHA         *string
	Size        *int
	Type        *string // "file", "dir", "symlink", "submodule"
	HTMLURL     *string
	URL         *string
	DownloadURL *string
	Encoding    *string
	Content     *string
}

// DecodedContent returns the object's content as text. Base64 payloads
// are decoded; line breaks inside the payload are ignored.
func (o *RemoteObject) DecodedContent() (string, error) {
	if o.Content == nil {
		return "", nil
	}
	if o.Encoding != nil && *o.Encoding != "" && *o.Encoding != "base64" {
		return *o.Content, nil
	}
	raw := strings.NewReplacer("\n", "", "\r", "").Replace(*o.Content)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", errors.Wrap(err, "invalid base64 content")
	}
	return string(data), nil
}

// RemoteCodeHit is one code search result.
type RemoteCodeHit struct {
	Name       *string
	Path       *string
	SHA        *string
	HTMLURL    *string
	Repository *string // owner/name
}

// RemoteClient is the minimal capability every remote backend adapts to.
type RemoteClient interface {
	GetRepo(ctx context.Context, fullName string) (*RemoteRepo, error)

	// GetContents returns exactly one of file or dir. ref may be empty for
	// the default branch.
	GetContents(ctx context.Context, fullName, path, ref string) (file *RemoteObject, dir []*RemoteObject, err error)

	// SearchCode yields hits lazily, fetching pages of at most perPage
	// items on demand. Stopping iteration stops fetching.
	SearchCode(ctx context.Context, query string, perPage int) iter.Seq2[*RemoteCodeHit, error]
}

// RemoteProvider is a backend that may or may not be usable in the
// running environment.
type RemoteProvider interface {
	Name() string
	Available() bool
	Connect(creds RemoteCredentials) (RemoteClient, error)
}

// SplitRepository splits "owner/name".
func SplitRepository(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", errors.Errorf("invalid repository %q: expected owner/name", fullName)
	}
	return owner, name, nil
}
