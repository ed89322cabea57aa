package fetcher

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// BranchCounter counts the branches of a git remote.
type BranchCounter interface {
	CountBranches(ctx context.Context, cloneURL string) (int, error)
}

// RemoteBranchCounter lists the remote's refs over the git smart protocol
// without cloning anything.
type RemoteBranchCounter struct {
	Token string
}

// CountBranches implements BranchCounter.
func (r *RemoteBranchCounter) CountBranches(ctx context.Context, cloneURL string) (int, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{cloneURL},
	})

	opts := &git.ListOptions{}
	if r.Token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: r.Token}
	}
	refs, err := remote.ListContext(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("listing refs of %s: %w", cloneURL, err)
	}

	n := 0
	for _, ref := range refs {
		if ref.Name().IsBranch() {
			n++
		}
	}
	return n, nil
}
