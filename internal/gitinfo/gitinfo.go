// Package gitinfo inspects the source worktree so generated documents can
// record which commit they were derived from.
package gitinfo

import (
	git "github.com/go-git/go-git/v5"
)

// Info describes the repository state at generation time.
type Info struct {
	Commit string
	Dirty  bool
}

// Describe returns commit information for the repository containing dir.
// A directory that is not inside a git worktree yields a zero Info and no
// error: documenting non-versioned trees is supported, the header just
// carries no commit.
func Describe(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err == git.ErrRepositoryNotExists {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, err
	}

	head, err := repo.Head()
	if err != nil {
		// Fresh repository with no commits yet.
		return Info{}, nil
	}

	info := Info{Commit: head.Hash().String()}

	wt, err := repo.Worktree()
	if err != nil {
		return info, nil
	}
	status, err := wt.Status()
	if err != nil {
		return info, nil
	}
	info.Dirty = !status.IsClean()

	return info, nil
}
