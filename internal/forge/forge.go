// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

// Package forge resolves symbolic revisions of hosted repositories to
// concrete commit identifiers.
//
// Each hosting service is described by an adapter that knows its endpoint
// shapes and response field names. The lookup sequence itself (default
// branch discovery followed by branch to commit resolution) is shared by all
// adapters.
package forge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// Kind identifies a repository hosting service.
type Kind string

const (
	GitHub    Kind = "github"
	GitLab    Kind = "gitlab"
	Sourcehut Kind = "sourcehut"
)

// DefaultHost returns the public instance of a hosting service.
func (k Kind) DefaultHost() string {
	switch k {
	case GitHub:
		return "github.com"
	case GitLab:
		return "gitlab.com"
	case Sourcehut:
		return "git.sr.ht"
	}
	return ""
}

// Repo names a repository on a hosting service.
type Repo struct {
	Host  string
	Owner string
	Name  string
}

func (r Repo) String() string {
	return r.Host + "/" + r.Owner + "/" + r.Name
}

// Revision is the normalized result of a remote lookup.
type Revision struct {
	DefaultBranch string
	Rev           string
}

// adapter describes one hosting service's REST API.
type adapter interface {
	apiBase(host string) string
	repoURL(base string, r Repo) string
	commitURL(base string, r Repo, branch string) string
	commitField() string
	tarballURL(base string, r Repo, rev string) string
}

var adapters = map[Kind]adapter{
	GitHub: githubAdapter{},
	GitLab: gitlabAdapter{},
}

// Client talks to hosting service APIs. The zero value is ready to use and
// sends unauthenticated requests with [http.DefaultClient].
type Client struct {
	// HTTPClient is the base client for API requests. If nil,
	// [http.DefaultClient] is used.
	HTTPClient *http.Client

	// Tokens maps a hosting service to an access token. A token is only
	// sent as a bearer token to the service's default host, never to a host
	// named in a project reference.
	Tokens map[Kind]string

	// BaseURL replaces the computed API base URL of every host when set.
	BaseURL string

	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

// Resolve returns a concrete revision for repo. An explicit rev is returned
// unchanged without any network call. Otherwise the host API is asked for
// the default branch and then for the commit that branch points to.
func (c *Client) Resolve(ctx context.Context, kind Kind, repo Repo, rev string) (string, error) {
	if kind == Sourcehut {
		return "", &NotImplementedError{Feature: "sourcehut"}
	}
	if rev != "" {
		return rev, nil
	}
	r, err := c.Lookup(ctx, kind, repo)
	if err != nil {
		return "", err
	}
	return r.Rev, nil
}

// Lookup performs the two sequential API requests for repo's default branch.
func (c *Client) Lookup(ctx context.Context, kind Kind, repo Repo) (Revision, error) {
	a, err := c.adapter(kind)
	if err != nil {
		return Revision{}, err
	}
	base := c.base(a, repo.Host)

	body, err := c.get(ctx, kind, repo.Host, a.repoURL(base, repo))
	if err != nil {
		return Revision{}, err
	}
	branch := gjson.GetBytes(body, "default_branch")
	if branch.Type != gjson.String || branch.String() == "" {
		return Revision{}, errors.Errorf("%s: repository metadata has no default branch", repo)
	}

	body, err = c.get(ctx, kind, repo.Host, a.commitURL(base, repo, branch.String()))
	if err != nil {
		return Revision{}, err
	}
	rev := gjson.GetBytes(body, a.commitField())
	if rev.Type != gjson.String || rev.String() == "" {
		return Revision{}, errors.Errorf("%s: commit for branch %q has no %s field",
			repo, branch.String(), a.commitField())
	}

	c.logger().DebugContext(ctx, "resolved default branch",
		"repo", repo.String(), "branch", branch.String(), "rev", rev.String())
	return Revision{DefaultBranch: branch.String(), Rev: rev.String()}, nil
}

// TarballURL returns the archive download URL of repo at rev.
func (c *Client) TarballURL(kind Kind, repo Repo, rev string) (string, error) {
	a, err := c.adapter(kind)
	if err != nil {
		return "", err
	}
	return a.tarballURL(c.base(a, repo.Host), repo, rev), nil
}

func (c *Client) adapter(kind Kind) (adapter, error) {
	if kind == Sourcehut {
		return nil, &NotImplementedError{Feature: "sourcehut"}
	}
	a, ok := adapters[kind]
	if !ok {
		return nil, errors.Errorf("unknown repository host kind %q", kind)
	}
	return a, nil
}

func (c *Client) base(a adapter, host string) string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return a.apiBase(host)
}

func (c *Client) get(ctx context.Context, kind Kind, host, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger().DebugContext(ctx, "host api request", "url", url)
	res, err := c.httpClient(kind, host).Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", url)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read response from %s", url)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HostAPIError{
			Host:    host,
			URL:     url,
			Status:  res.StatusCode,
			Message: apiMessage(body),
		}
	}
	return body, nil
}

func (c *Client) httpClient(kind Kind, host string) *http.Client {
	base := c.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	token := c.token(kind, host)
	if token == "" {
		return base
	}
	authed := *base
	authed.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   base.Transport,
	}
	return &authed
}

// token returns the configured token for kind when host is its default host.
func (c *Client) token(kind Kind, host string) string {
	if host != "" && host != kind.DefaultHost() {
		return ""
	}
	return c.Tokens[kind]
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// apiMessage extracts a human readable message from an error response body.
// Both GitHub and GitLab use a top-level "message" field.
func apiMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		if msg.Type == gjson.String {
			return msg.String()
		}
		return msg.Raw
	}
	return strings.TrimSpace(string(body))
}

// HostAPIError is a non-success response from a hosting service API.
type HostAPIError struct {
	Host    string
	URL     string
	Status  int
	Message string
}

func (e *HostAPIError) Error() string {
	msg := fmt.Sprintf("%s api returned %d %s", e.Host, e.Status, http.StatusText(e.Status))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// NotImplementedError is returned for hosting services that nilla
// recognizes but cannot fetch from yet.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return e.Feature + " sources are not implemented"
}
