// Package ghcli adapts the GitHub CLI (`gh api`) to domain.RemoteClient.
// It is the fallback backend for hosts where gh is installed and already
// configured.
package ghcli

import (
	"bytes"
	"context"
	"iter"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/fpt/codeassist/pkg/domain"
)

// BackendName is the name used in backend preference lists.
const BackendName = "gh"

// Runner executes gh with extra environment variables and returns stdout.
type Runner func(ctx context.Context, bin string, env []string, args ...string) ([]byte, error)

// Provider detects gh on PATH.
type Provider struct {
	lookPath func(string) (string, error)
	run      Runner
}

// NewProvider returns a provider that looks gh up on PATH and runs it
// with os/exec.
func NewProvider() *Provider {
	return &Provider{lookPath: exec.LookPath, run: execRunner}
}

// NewProviderWithRunner replaces PATH lookup and process execution.
func NewProviderWithRunner(lookPath func(string) (string, error), run Runner) *Provider {
	return &Provider{lookPath: lookPath, run: run}
}

func (p *Provider) Name() string { return BackendName }

func (p *Provider) Available() bool {
	_, err := p.lookPath("gh")
	return err == nil
}

func (p *Provider) Connect(creds domain.RemoteCredentials) (domain.RemoteClient, error) {
	bin, err := p.lookPath("gh")
	if err != nil {
		return nil, errors.Wrap(err, "gh not found")
	}
	c := &Client{bin: bin, run: p.run, env: []string{"GH_TOKEN=" + creds.Token, "GH_PROMPT_DISABLED=1"}}
	if creds.APIBaseURL != "" {
		u, err := url.Parse(creds.APIBaseURL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid API base URL %q", creds.APIBaseURL)
		}
		c.hostname = u.Host
	}
	return c, nil
}

// Client implements domain.RemoteClient by shelling out to `gh api`.
type Client struct {
	bin      string
	run      Runner
	env      []string
	hostname string
}

func (c *Client) api(ctx context.Context, args ...string) (gjson.Result, error) {
	full := []string{"api"}
	if c.hostname != "" {
		full = append(full, "--hostname", c.hostname)
	}
	full = append(full, args...)
	out, err := c.run(ctx, c.bin, c.env, full...)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(out) {
		return gjson.Result{}, errors.Errorf("gh returned invalid JSON: %.200s", out)
	}
	return gjson.ParseBytes(out), nil
}

func (c *Client) GetRepo(ctx context.Context, fullName string) (*domain.RemoteRepo, error) {
	owner, name, err := domain.SplitRepository(fullName)
	if err != nil {
		return nil, err
	}
	res, err := c.api(ctx, "repos/"+url.PathEscape(owner)+"/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	return &domain.RemoteRepo{
		FullName:      res.Get("full_name").String(),
		DefaultBranch: res.Get("default_branch").String(),
	}, nil
}

func (c *Client) GetContents(ctx context.Context, fullName, path, ref string) (*domain.RemoteObject, []*domain.RemoteObject, error) {
	owner, name, err := domain.SplitRepository(fullName)
	if err != nil {
		return nil, nil, err
	}
	endpoint := "repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name) + "/contents/" + escapePath(path)
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	res, err := c.api(ctx, endpoint)
	if err != nil {
		return nil, nil, err
	}
	if !res.IsArray() {
		return toObject(res), nil, nil
	}
	var entries []*domain.RemoteObject
	res.ForEach(func(_, v gjson.Result) bool {
		entries = append(entries, toObject(v))
		return true
	})
	if entries == nil {
		entries = []*domain.RemoteObject{}
	}
	return nil, entries, nil
}

func (c *Client) SearchCode(ctx context.Context, query string, perPage int) iter.Seq2[*domain.RemoteCodeHit, error] {
	return func(yield func(*domain.RemoteCodeHit, error) bool) {
		seen := 0
		for page := 1; ; page++ {
			res, err := c.api(ctx, "--method", "GET", "search/code",
				"-f", "q="+query,
				"-f", "per_page="+strconv.Itoa(perPage),
				"-f", "page="+strconv.Itoa(page))
			if err != nil {
				yield(nil, err)
				return
			}
			items := res.Get("items").Array()
			for _, item := range items {
				seen++
				hit := &domain.RemoteCodeHit{
					Name:       optString(item, "name"),
					Path:       optString(item, "path"),
					SHA:        optString(item, "sha"),
					HTMLURL:    optString(item, "html_url"),
					Repository: optString(item, "repository.full_name"),
				}
				if !yield(hit, nil) {
					return
				}
			}
			if len(items) < perPage || int64(seen) >= res.Get("total_count").Int() {
				return
			}
		}
	}
}

func toObject(v gjson.Result) *domain.RemoteObject {
	return &domain.RemoteObject{
		Name:        optString(v, "name"),
		Path:        optString(v, "path"),
		SHA:         optString(v, "sha"),
		Size:        optInt(v, "size"),
		Type:        optString(v, "type"),
		HTMLURL:     optString(v, "html_url"),
		URL:         optString(v, "url"),
		DownloadURL: optString(v, "download_url"),
		Encoding:    optString(v, "encoding"),
		Content:     optString(v, "content"),
	}
}

func optString(v gjson.Result, key string) *string {
	f := v.Get(key)
	if !f.Exists() || f.Type == gjson.Null {
		return nil
	}
	s := f.String()
	return &s
}

func optInt(v gjson.Result, key string) *int {
	f := v.Get(key)
	if f.Type != gjson.Number {
		return nil
	}
	n := int(f.Int())
	return &n
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func execRunner(ctx context.Context, bin string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, classify(err, stderr.String(), stdout.Bytes())
	}
	return stdout.Bytes(), nil
}

// classify turns a failed gh invocation into an error; 404s become
// domain.ErrRemoteNotFound.
func classify(err error, stderr string, stdout []byte) error {
	msg := strings.TrimSpace(stderr)
	if strings.Contains(msg, "HTTP 404") || gjson.GetBytes(stdout, "status").String() == "404" {
		return errors.Wrap(domain.ErrRemoteNotFound, msg)
	}
	if msg == "" {
		return errors.Wrap(err, "gh api failed")
	}
	return errors.Wrap(err, msg)
}
