package docs

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
)

// Entry is one documented object from a Sphinx inventory
type Entry struct {
	Name        string
	Role        string // "py:class", "py:method", "std:label", ...
	URL         string
	DisplayName string
}

// ParseInventory decodes a version 2 Sphinx objects.inv. Relative URIs are
// resolved against baseURL.
func ParseInventory(r io.Reader, baseURL string) ([]Entry, error) {
	br := bufio.NewReader(r)

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory header: %w", err)
	}
	if strings.TrimSpace(header) != "# Sphinx inventory version 2" {
		return nil, fmt.Errorf("unsupported inventory header %q", strings.TrimSpace(header))
	}

	// Project, version and compression lines
	for i := 0; i < 3; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("failed to read inventory header: %w", err)
		}
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory body: %w", err)
	}
	defer zr.Close()

	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress inventory body: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		entry, ok := parseLine(scanner.Text(), baseURL)
		if ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan inventory body: %w", err)
	}

	return entries, nil
}

// parseLine parses "name domain:role priority uri dispname".
// The name may contain spaces, so the line is split from both ends.
func parseLine(line, baseURL string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}

	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Entry{}, false
	}

	// Find the domain:role token; everything before it is the name
	roleIdx := -1
	for i := 1; i+2 < len(fields); i++ {
		if strings.Contains(fields[i], ":") && isPriority(fields[i+1]) {
			roleIdx = i
			break
		}
	}
	if roleIdx < 0 {
		return Entry{}, false
	}

	name := strings.Join(fields[:roleIdx], " ")
	role := fields[roleIdx]
	uri := fields[roleIdx+2]
	display := strings.Join(fields[roleIdx+3:], " ")

	if strings.HasSuffix(uri, "$") {
		uri = strings.TrimSuffix(uri, "$") + name
	}
	if display == "-" || display == "" {
		display = name
	}

	return Entry{
		Name:        name,
		Role:        role,
		URL:         baseURL + uri,
		DisplayName: display,
	}, true
}

func isPriority(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
