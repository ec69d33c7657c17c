package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/cleared-dev/recon/internal/schema"
)

// parseMapping reads "column=field" pairs from --map-source / --map-reference.
// The last "=" separates the two so column names may contain one.
func parseMapping(pairs []string) (schema.Mapping, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(schema.Mapping, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 || i == len(p)-1 {
			return nil, fmt.Errorf("invalid mapping %q (want column=field)", p)
		}
		col, field := strings.TrimSpace(p[:i]), strings.TrimSpace(p[i+1:])
		if prev, ok := m[col]; ok && prev != field {
			return nil, fmt.Errorf("column %q mapped twice (%s, %s)", col, prev, field)
		}
		m[col] = field
	}
	return m, nil
}

// interactive reports whether the command can prompt on stdin.
func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// promptMapping asks for one candidate column per missing field. Answers are
// a candidate's number or its exact name; an empty answer aborts.
func promptMapping(in *bufio.Reader, out io.Writer, req schema.MappingRequest) (schema.Mapping, error) {
	fmt.Fprintf(out, "%s file %q is missing required columns.\n", req.Side, req.Table)

	m := make(schema.Mapping, len(req.Missing))
	used := make(map[string]bool)
	for _, field := range req.Missing {
		var available []string
		for _, c := range req.Candidates {
			if !used[c] {
				available = append(available, c)
			}
		}
		if len(available) == 0 {
			return nil, fmt.Errorf("no unmapped column left for %s", field.Name)
		}

		fmt.Fprintf(out, "\nWhich column holds %s (%s)?\n", field.Label, field.Name)
		for i, c := range available {
			fmt.Fprintf(out, "  %d) %s\n", i+1, c)
		}

		col, err := askColumn(in, out, available)
		if err != nil {
			return nil, err
		}
		m[col] = field.Name
		used[col] = true
	}
	return m, nil
}

func askColumn(in *bufio.Reader, out io.Writer, available []string) (string, error) {
	for {
		fmt.Fprint(out, "> ")
		line, err := in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("reading answer: %w", err)
			}
			return "", errors.New("mapping aborted")
		}

		if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(available) {
			return available[n-1], nil
		}
		for _, c := range available {
			if c == answer {
				return c, nil
			}
		}
		if err != nil {
			return "", fmt.Errorf("unknown column %q", answer)
		}
		fmt.Fprintf(out, "unknown column %q, pick 1-%d\n", answer, len(available))
	}
}

// mappingHint explains how to resolve an incomplete mapping without a prompt.
func mappingHint(req schema.MappingRequest, flag string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s file %q needs a column mapping; available columns: %s\n",
		req.Side, req.Table, strings.Join(req.Candidates, ", "))
	for _, f := range req.Missing {
		fmt.Fprintf(&b, "  %s %q=%s   # %s\n", flag, "<column>", f.Name, f.Label)
	}
	return b.String()
}
