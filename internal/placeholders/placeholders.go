package placeholders

import (
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
	"github.com/AnotherFullstackDev/fargatectl/internal/placeholders/git"
)

type PlaceholderResolver func() (string, error)

type Resolvers map[string]PlaceholderResolver

type modifierFunc func(input string, args []string) (string, error)

type placeholderModifier struct {
	name string
	args []string
}

type placeholder struct {
	raw       string
	value     string
	modifiers []placeholderModifier
}

var (
	placeholderRegExp = regexp.MustCompile(`{{\s*([^{}]+)\s*}}`)
	modifierRegExp    = regexp.MustCompile(`^(\w+)(\(([^()]*)\))?$`)
)

var modifiers = map[string]modifierFunc{
	"upper":       upperModifier,
	"lower":       lowerModifier,
	"trim":        trimModifier,
	"replace":     replaceModifier,
	"replace_all": replaceAllModifier,
	"short":       shortModifier,
}

// Service resolves {{ name | modifier(args) }} placeholders in configuration values.
type Service struct {
	gitRepoInfo git.RepositoryInfoService
	values      map[string]string
}

// NewService creates a resolver. gitRepoInfo may be nil when the working directory is not a
// git repository, git placeholders then fail on use.
func NewService(gitRepoInfo git.RepositoryInfoService) *Service {
	return &Service{
		gitRepoInfo: gitRepoInfo,
		values:      map[string]string{},
	}
}

// WithValues returns a copy of the service with extra static placeholders, e.g. stack.name.
func (s *Service) WithValues(values map[string]string) *Service {
	merged := maps.Clone(s.values)
	maps.Copy(merged, values)
	return &Service{gitRepoInfo: s.gitRepoInfo, values: merged}
}

func extractPlaceholders(value string) ([]placeholder, error) {
	matches := placeholderRegExp.FindAllStringSubmatch(value, -1)
	result := make([]placeholder, 0, len(matches))

	for _, match := range matches {
		raw := match[0]
		parts := strings.Split(match[1], "|")

		p := placeholder{
			raw:       raw,
			value:     strings.TrimSpace(parts[0]),
			modifiers: make([]placeholderModifier, 0, len(parts)-1),
		}
		if p.value == "" {
			return nil, fmt.Errorf("%w - empty placeholder name in %s", lib.BadUserInputError, raw)
		}

		for _, part := range parts[1:] {
			rawModifier := strings.TrimSpace(part)
			if rawModifier == "" {
				continue
			}

			modifierMatch := modifierRegExp.FindStringSubmatch(rawModifier)
			if modifierMatch == nil {
				return nil, fmt.Errorf("%w - invalid modifier %q in placeholder %s", lib.BadUserInputError, rawModifier, raw)
			}

			var args []string
			if modifierMatch[3] != "" {
				args = strings.Split(modifierMatch[3], ",")
				for i := range args {
					args[i] = strings.TrimSpace(args[i])
					if unquoted, err := strconv.Unquote(args[i]); err == nil {
						args[i] = unquoted
					} else if len(args[i]) >= 2 && args[i][0] == '\'' && args[i][len(args[i])-1] == '\'' {
						args[i] = args[i][1 : len(args[i])-1]
					}
				}
			}

			p.modifiers = append(p.modifiers, placeholderModifier{name: modifierMatch[1], args: args})
		}

		result = append(result, p)
	}

	return result, nil
}

// ResolvePlaceholders replaces every placeholder in value with static values or the built-in git
// and time resolvers.
func (s *Service) ResolvePlaceholders(value string) (string, error) {
	return s.ResolvePlaceholdersWith(value)
}

// ResolvePlaceholdersWith is ResolvePlaceholders with extra resolvers that take precedence over
// static values.
func (s *Service) ResolvePlaceholdersWith(value string, extraResolvers ...Resolvers) (string, error) {
	found, err := extractPlaceholders(value)
	if err != nil {
		return "", fmt.Errorf("extracting placeholders: %w", err)
	}
	if len(found) == 0 {
		return value, nil
	}

	for _, p := range found {
		resolver := s.lookup(p.value, extraResolvers)
		if resolver == nil {
			return "", fmt.Errorf("%w - no resolver found for placeholder: %s", lib.BadUserInputError, p.raw)
		}

		resolved, err := resolver()
		if err != nil {
			return "", fmt.Errorf("resolving placeholder %s: %w", p.raw, err)
		}

		for _, m := range p.modifiers {
			apply, ok := modifiers[m.name]
			if !ok {
				return "", fmt.Errorf("%w - unknown modifier %s in placeholder %s", lib.BadUserInputError, m.name, p.raw)
			}

			resolved, err = apply(resolved, m.args)
			if err != nil {
				return "", fmt.Errorf("applying modifier %s to placeholder %s: %w", m.name, p.raw, err)
			}
		}

		value = strings.Replace(value, p.raw, resolved, 1)
	}

	return value, nil
}

func (s *Service) lookup(name string, extraResolvers []Resolvers) PlaceholderResolver {
	for _, resolvers := range extraResolvers {
		if resolver, ok := resolvers[name]; ok {
			return resolver
		}
	}

	if v, ok := s.values[name]; ok {
		return func() (string, error) { return v, nil }
	}

	switch name {
	case "git.branch":
		return s.resolveGitBranch
	case "git.commit":
		return s.resolveGitCommit
	case "git.tag":
		return s.resolveGitTag
	case "time.timestamp":
		return resolveUnixTimestamp
	case "time.iso8601":
		return resolveISO8601Timestamp
	}

	return nil
}
