// Package linkcheck resolves submission links against GitHub. Most bounty
// work lands as a pull request, so a link that points at a nonexistent PR is
// usually a typo worth catching before review starts.
package linkcheck

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// Modes.
const (
	ModeOff    = "off"    // never inspect
	ModeWarn   = "warn"   // inspect, log failures, let the submission through
	ModeStrict = "strict" // inspect, fail the submission on unresolvable links
)

// ValidMode reports whether m is a known mode.
func ValidMode(m string) bool {
	return m == ModeOff || m == ModeWarn || m == ModeStrict
}

// pullGetter is the slice of the GitHub API the checker uses.
type pullGetter interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
}

// issueGetter mirrors pullGetter for issue links.
type issueGetter interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
}

// Checker inspects submission links.
type Checker struct {
	mode   string
	pulls  pullGetter
	issues issueGetter
}

// New builds a Checker. An empty token uses unauthenticated API limits.
func New(mode, token string) *Checker {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}
	return &Checker{mode: mode, pulls: client.PullRequests, issues: client.Issues}
}

// ref is a parsed GitHub pull or issue reference.
type ref struct {
	owner  string
	repo   string
	kind   string // "pull" or "issues"
	number int
}

// parseGitHubRef extracts a pull/issue reference from a link, or nil when the
// link is not a GitHub pull/issue URL.
func parseGitHubRef(link string) *ref {
	u, err := url.Parse(link)
	if err != nil || u.Host != "github.com" {
		return nil
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 4 {
		return nil
	}
	if parts[2] != "pull" && parts[2] != "issues" {
		return nil
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n <= 0 {
		return nil
	}
	return &ref{owner: parts[0], repo: parts[1], kind: parts[2], number: n}
}

// Inspect verifies that link resolves. Non-GitHub links and links that are
// not pull/issue URLs always pass; only a GitHub reference that fails to
// resolve is reported. In warn mode the failure is logged and nil returned.
func (c *Checker) Inspect(ctx context.Context, link string) error {
	if c == nil || c.mode == ModeOff {
		return nil
	}
	r := parseGitHubRef(link)
	if r == nil {
		return nil
	}

	var err error
	switch r.kind {
	case "pull":
		_, _, err = c.pulls.Get(ctx, r.owner, r.repo, r.number)
	case "issues":
		_, _, err = c.issues.Get(ctx, r.owner, r.repo, r.number)
	}
	if err == nil {
		return nil
	}

	if c.mode == ModeWarn {
		log.Printf("linkcheck: %s did not resolve: %v", link, err)
		return nil
	}
	return fmt.Errorf("linkcheck: %s did not resolve: %w", link, err)
}
