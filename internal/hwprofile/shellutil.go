package hwprofile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// defaultCommandTimeout bounds every subprocess invocation.
const defaultCommandTimeout = 5 * time.Second

// ParseError names the offending command and the head of its output, so
// callers never have to guess why a probe produced garbage.
type ParseError struct {
	Command string
	Head    string
}

func (e *ParseError) Error() string {
	head := e.Head
	if len(head) > 120 {
		head = head[:120] + "..."
	}
	return fmt.Sprintf("could not parse output of %q: %q", e.Command, head)
}

// runCommand executes name/args in a profile-isolated, non-interactive shell
// with a bounded timeout and a stripped environment (LANG=C) so numeric
// output is locale-stable. It never hangs indefinitely.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = []string{"LANG=C", "LC_ALL=C", "PATH=/usr/bin:/bin:/usr/sbin:/sbin"}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("exec %s %s: %w", name, strings.Join(args, " "), err)
	}
	return out.String(), nil
}

var firstNumberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// firstNumericToken extracts the first well-formed number in raw output,
// ignoring shell banners or warning lines that precede it.
func firstNumericToken(cmdDescription, raw string) (float64, error) {
	match := firstNumberPattern.FindString(raw)
	if match == "" {
		return 0, &ParseError{Command: cmdDescription, Head: raw}
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, &ParseError{Command: cmdDescription, Head: raw}
	}
	return value, nil
}

// firstJSONObject extracts and decodes the first well-formed JSON object or
// array within raw output, ignoring any banner text before it.
func firstJSONObject(cmdDescription, raw string, out interface{}) error {
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return &ParseError{Command: cmdDescription, Head: raw}
	}
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	if err := dec.Decode(out); err != nil {
		return &ParseError{Command: cmdDescription, Head: raw}
	}
	return nil
}

// csvFields splits a single CSV line into trimmed fields, as produced by
// tools like `nvidia-smi --format=csv,noheader`.
func csvFields(line string) []string {
	parts := strings.Split(line, ",")
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = strings.TrimSpace(p)
	}
	return fields
}

func firstLine(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		return strings.TrimSpace(raw[:idx])
	}
	return raw
}
