// Package gogithub adapts the GitHub REST API, through go-github, to
// domain.RemoteClient.
package gogithub

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/pkg/errors"

	"github.com/fpt/codeassist/pkg/domain"
)

// BackendName is the name used in backend preference lists.
const BackendName = "go-github"

// Provider creates go-github clients. It is compiled in, so it is always
// available.
type Provider struct{}

// NewProvider returns a provider using http.DefaultClient.
func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string    { return BackendName }
func (p *Provider) Available() bool { return true }

// Connect builds an authenticated client. APIBaseURL, when set, replaces
// https://api.github.com/ (GitHub Enterprise or a test server).
func (p *Provider) Connect(creds domain.RemoteCredentials) (domain.RemoteClient, error) {
	gh := github.NewClient(nil).WithAuthToken(creds.Token)
	if creds.APIBaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(creds.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, errors.Wrapf(err, "invalid API base URL %q", creds.APIBaseURL)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh}, nil
}

// Client implements domain.RemoteClient over go-github.
type Client struct {
	gh *github.Client
}

func (c *Client) GetRepo(ctx context.Context, fullName string) (*domain.RemoteRepo, error) {
	owner, name, err := domain.SplitRepository(fullName)
	if err != nil {
		return nil, err
	}
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, translate(err)
	}
	return &domain.RemoteRepo{
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}

func (c *Client) GetContents(ctx context.Context, fullName, path, ref string) (*domain.RemoteObject, []*domain.RemoteObject, error) {
	owner, name, err := domain.SplitRepository(fullName)
	if err != nil {
		return nil, nil, err
	}
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}
	file, dir, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path, opts)
	if err != nil {
		return nil, nil, translate(err)
	}
	if file != nil {
		return toObject(file), nil, nil
	}
	entries := make([]*domain.RemoteObject, 0, len(dir))
	for _, e := range dir {
		entries = append(entries, toObject(e))
	}
	return nil, entries, nil
}

func (c *Client) SearchCode(ctx context.Context, query string, perPage int) iter.Seq2[*domain.RemoteCodeHit, error] {
	return func(yield func(*domain.RemoteCodeHit, error) bool) {
		opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: perPage}}
		for {
			res, resp, err := c.gh.Search.Code(ctx, query, opts)
			if err != nil {
				yield(nil, translate(err))
				return
			}
			for _, r := range res.CodeResults {
				hit := &domain.RemoteCodeHit{
					Name:    r.Name,
					Path:    r.Path,
					SHA:     r.SHA,
					HTMLURL: r.HTMLURL,
				}
				if r.Repository != nil {
					hit.Repository = r.Repository.FullName
				}
				if !yield(hit, nil) {
					return
				}
			}
			if resp == nil || resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

func toObject(rc *github.RepositoryContent) *domain.RemoteObject {
	return &domain.RemoteObject{
		Name:        rc.Name,
		Path:        rc.Path,
		SHA:         rc.SHA,
		Size:        rc.Size,
		Type:        rc.Type,
		HTMLURL:     rc.HTMLURL,
		URL:         rc.URL,
		DownloadURL: rc.DownloadURL,
		Encoding:    rc.Encoding,
		Content:     rc.Content,
	}
}

// translate maps 404 responses onto domain.ErrRemoteNotFound.
func translate(err error) error {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound {
		return errors.Wrap(domain.ErrRemoteNotFound, er.Message)
	}
	return errors.WithStack(err)
}
