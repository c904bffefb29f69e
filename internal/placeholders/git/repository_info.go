package git

import (
	"fmt"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
)

type RepositoryInfoService interface {
	CurrentBranch() (string, error)
	CurrentCommit() (*object.Commit, error)
	CurrentTag() (*plumbing.Reference, error)
}

type repositoryInfoService struct {
	r *git.Repository
}

// NewRepositoryInfoService opens the repository containing path, walking up to the first .git.
func NewRepositoryInfoService(path string) (RepositoryInfoService, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	return &repositoryInfoService{r: repo}, nil
}

func (s *repositoryInfoService) CurrentBranch() (string, error) {
	head, err := s.r.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached")
	}

	return head.Name().Short(), nil
}

func (s *repositoryInfoService) CurrentCommit() (*object.Commit, error) {
	head, err := s.r.Head()
	if err != nil {
		return nil, fmt.Errorf("getting HEAD reference: %w", err)
	}

	commit, err := s.r.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}

	return commit, nil
}

// CurrentTag returns the first tag pointing at HEAD, either lightweight or annotated, or nil.
func (s *repositoryInfoService) CurrentTag() (*plumbing.Reference, error) {
	commit, err := s.CurrentCommit()
	if err != nil {
		return nil, err
	}

	tags, err := s.r.Tags()
	if err != nil {
		return nil, fmt.Errorf("getting tags iterator: %w", err)
	}
	defer tags.Close()

	var found *plumbing.Reference
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		if found != nil {
			return nil
		}
		if ref.Hash().Equal(commit.Hash) {
			found = ref
			return nil
		}
		// annotated tags point at a tag object
		if obj, err := s.r.TagObject(ref.Hash()); err == nil && obj.Target.Equal(commit.Hash) {
			found = ref
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating over tags: %w", err)
	}

	return found, nil
}
