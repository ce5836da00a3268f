// Package vcs shells out to git for the few working-tree operations
// the engine needs: file discovery, checkout, and commit. Everything
// else about version control stays outside the engine.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type Repo struct {
	dir string
}

func Open(dir string) *Repo {
	return &Repo{dir: dir}
}

func (r *Repo) Dir() string {
	return r.dir
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return out.String(), fmt.Errorf("git %s: %s", args[0], msg)
	}
	return out.String(), nil
}

// IsRepo reports whether dir is inside a git working tree.
func (r *Repo) IsRepo(ctx context.Context) bool {
	out, err := r.git(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// ListFiles returns the tracked and untracked-but-not-ignored files,
// repo-relative with forward slashes.
func (r *Repo) ListFiles(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "ls-files", "--cached", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// CheckoutStatus classifies the outcome of a checkout attempt.
type CheckoutStatus string

const (
	CheckoutSuccess  CheckoutStatus = "success"
	CheckoutConflict CheckoutStatus = "conflict"
	CheckoutNotFound CheckoutStatus = "not-found"
)

type CheckoutResult struct {
	Status CheckoutStatus
	Ref    string
	Detail string
}

// Checkout switches the working tree to a commit or branch. With
// createIfMissing, an unknown ref becomes a new branch, tracking
// remote/ref when a remote is given and the fetch succeeds. The result
// classifies failure instead of returning an error; errors are
// reserved for git being unusable.
func (r *Repo) Checkout(ctx context.Context, ref string, createIfMissing bool, remote string) (*CheckoutResult, error) {
	if remote != "" {
		// Best effort: the ref may exist only locally.
		_, _ = r.git(ctx, "fetch", remote, ref)
	}

	_, err := r.git(ctx, "checkout", ref)
	if err == nil {
		return &CheckoutResult{Status: CheckoutSuccess, Ref: ref}, nil
	}

	detail := err.Error()
	switch {
	case strings.Contains(detail, "would be overwritten"):
		return &CheckoutResult{Status: CheckoutConflict, Ref: ref, Detail: detail}, nil
	case strings.Contains(detail, "did not match any") || strings.Contains(detail, "pathspec"):
		if !createIfMissing {
			return &CheckoutResult{Status: CheckoutNotFound, Ref: ref, Detail: detail}, nil
		}
		args := []string{"checkout", "-b", ref}
		if remote != "" {
			args = append(args, "--track", remote+"/"+ref)
		}
		if _, err := r.git(ctx, args...); err != nil {
			// Tracking can fail when the remote ref does not exist;
			// fall back to a plain local branch.
			if remote != "" {
				if _, err := r.git(ctx, "checkout", "-b", ref); err != nil {
					return &CheckoutResult{Status: CheckoutNotFound, Ref: ref, Detail: err.Error()}, nil
				}
				return &CheckoutResult{Status: CheckoutSuccess, Ref: ref}, nil
			}
			return &CheckoutResult{Status: CheckoutNotFound, Ref: ref, Detail: err.Error()}, nil
		}
		return &CheckoutResult{Status: CheckoutSuccess, Ref: ref}, nil
	}
	return nil, err
}

// CommitAll stages every change under the repo and commits it.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if _, err := r.git(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return err
	}
	return nil
}

// Head returns the current commit hash.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
