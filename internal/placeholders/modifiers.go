package placeholders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AnotherFullstackDev/fargatectl/internal/lib"
)

func upperModifier(input string, _ []string) (string, error) {
	return strings.ToUpper(input), nil
}

func lowerModifier(input string, _ []string) (string, error) {
	return strings.ToLower(input), nil
}

func trimModifier(input string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return strings.TrimSpace(input), nil
	case 1:
		return strings.Trim(input, args[0]), nil
	default:
		return "", fmt.Errorf("%w - trim expects at most one argument, got %d", lib.BadUserInputError, len(args))
	}
}

func replaceModifier(input string, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w - replace expects exactly two arguments, got %d", lib.BadUserInputError, len(args))
	}
	return strings.Replace(input, args[0], args[1], 1), nil
}

func replaceAllModifier(input string, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w - replace_all expects exactly two arguments, got %d", lib.BadUserInputError, len(args))
	}
	return strings.ReplaceAll(input, args[0], args[1]), nil
}

// shortModifier keeps the first n characters, 7 when no argument is given.
func shortModifier(input string, args []string) (string, error) {
	n := 7
	if len(args) > 1 {
		return "", fmt.Errorf("%w - short expects at most one argument, got %d", lib.BadUserInputError, len(args))
	}
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			return "", fmt.Errorf("%w - short expects a positive length, got %q", lib.BadUserInputError, args[0])
		}
		n = parsed
	}
	if len(input) <= n {
		return input, nil
	}
	return input[:n], nil
}
