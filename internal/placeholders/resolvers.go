package placeholders

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
)

var errNoRepository = errors.New("not inside a git repository")

func resolveUnixTimestamp() (string, error) {
	return strconv.FormatInt(time.Now().UTC().Unix(), 10), nil
}

func resolveISO8601Timestamp() (string, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func (s *Service) resolveGitBranch() (string, error) {
	if s.gitRepoInfo == nil {
		return "", errNoRepository
	}
	branch, err := s.gitRepoInfo.CurrentBranch()
	if err != nil {
		return "", fmt.Errorf("getting current git branch: %w", err)
	}
	return branch, nil
}

func (s *Service) resolveGitCommit() (string, error) {
	if s.gitRepoInfo == nil {
		return "", errNoRepository
	}
	commit, err := s.gitRepoInfo.CurrentCommit()
	if err != nil {
		return "", fmt.Errorf("getting current git commit: %w", err)
	}
	return commit.Hash.String(), nil
}

func (s *Service) resolveGitTag() (string, error) {
	if s.gitRepoInfo == nil {
		return "", errNoRepository
	}
	tag, err := s.gitRepoInfo.CurrentTag()
	if err != nil {
		return "", fmt.Errorf("getting current git tag: %w", err)
	}
	if tag == nil {
		return "", fmt.Errorf("%w - no git tag found for current commit", lib.BadUserInputError)
	}

	return tag.Name().Short(), nil
}
