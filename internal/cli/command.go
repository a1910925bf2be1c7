package cli

import (
	"fmt"
	"os"
	"strings"
)

// Command represents the host command to execute.
type Command struct {
	// Path is the resolved executable.
	Path string

	// Args are the command line arguments, excluding the executable.
	Args []string

	// Env are the environment variables.
	Env []string
}

// SplitCommand splits s into arguments on unquoted whitespace.
// Single quotes preserve everything literally; double quotes allow \" and \\.
func SplitCommand(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false

		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}

		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				cur.WriteRune(r)
			}

		case r == '\'' || r == '"':
			quote = r
			inArg = true

		case r == '\\':
			escaped = true
			inArg = true

		case r == ' ' || r == '\t' || r == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()

				inArg = false
			}

		default:
			cur.WriteRune(r)

			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}

	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}

	if inArg {
		args = append(args, cur.String())
	}

	return args, nil
}

// BuildEnvironment returns the current environment with extra variables
// appended. Later entries win when names collide.
func BuildEnvironment(extra map[string]string) []string {
	env := os.Environ()

	for k, v := range extra {
		env = append(env, k+"="+v)
	}

	return env
}
