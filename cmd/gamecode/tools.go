package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-go-golems/gamecode/pkg/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ReadFileRequest struct {
	Path string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
}

type ListDirRequest struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory relative to the workspace root,default=."`
}

type ListDirResponse struct {
	Path    string   `json:"path"`
	Entries []string `json:"entries"`
}

type WriteFileRequest struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Content string `json:"content" jsonschema:"required,description=Full new content of the file"`
}

type SearchFilesRequest struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Substring to look for"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search in,default=."`
}

type SearchMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

const maxReadBytes = 256 * 1024

// workspace confines file tools to a root directory.
type workspace struct {
	root string
	// confirm, when set, is asked before a file is written.
	confirm func(question string) (bool, error)
}

func newWorkspace(root string) (*workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve workspace %s", root)
	}
	return &workspace{root: abs}, nil
}

func (w *workspace) resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}
	p := filepath.Clean(filepath.Join(w.root, path))
	rel, err := filepath.Rel(w.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("path %s is outside the workspace", path)
	}
	return p, nil
}

func (w *workspace) readFile(req ReadFileRequest) (string, error) {
	p, err := w.resolve(req.Path)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", req.Path)
	}
	if len(b) <= maxReadBytes {
		return string(b), nil
	}
	n := maxReadBytes
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	log.Debug().Str("path", req.Path).Int("size", len(b)).Int("kept", n).Msg("tools: truncating file")
	return fmt.Sprintf("%s\n[truncated at %d bytes]", b[:n], n), nil
}

func (w *workspace) listDir(req ListDirRequest) (ListDirResponse, error) {
	p, err := w.resolve(req.Path)
	if err != nil {
		return ListDirResponse{}, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return ListDirResponse{}, errors.Wrapf(err, "list %s", req.Path)
	}
	ret := ListDirResponse{Path: req.Path, Entries: make([]string, 0, len(entries))}
	if ret.Path == "" {
		ret.Path = "."
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		ret.Entries = append(ret.Entries, name)
	}
	return ret, nil
}

func (w *workspace) writeFile(req WriteFileRequest) (string, error) {
	p, err := w.resolve(req.Path)
	if err != nil {
		return "", err
	}
	if w.confirm != nil {
		ok, err := w.confirm(fmt.Sprintf("Allow the agent to write %s (%d bytes)?", req.Path, len(req.Content)))
		if err != nil {
			return "", errors.Wrap(err, "ask for confirmation")
		}
		if !ok {
			return "", errors.Errorf("write to %s declined by the user", req.Path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", errors.Wrapf(err, "create directory for %s", req.Path)
	}
	if err := os.WriteFile(p, []byte(req.Content), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", req.Path)
	}
	return "wrote " + req.Path, nil
}

func (w *workspace) searchFiles(req SearchFilesRequest) ([]SearchMatch, error) {
	if req.Pattern == "" {
		return nil, errors.New("pattern must not be empty")
	}
	start, err := w.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	matches := []SearchMatch{}
	err = filepath.WalkDir(start, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != start {
				return filepath.SkipDir
			}
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil || len(b) > maxReadBytes {
			return nil
		}
		rel, _ := filepath.Rel(w.root, p)
		for i, line := range strings.Split(string(b), "\n") {
			if strings.Contains(line, req.Pattern) {
				matches = append(matches, SearchMatch{Path: rel, Line: i + 1, Text: strings.TrimSpace(line)})
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", req.Path)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	return matches, nil
}

// newWorkspaceRegistry registers the file tools the chat command exposes.
func newWorkspaceRegistry(w *workspace) (*tools.InMemoryToolRegistry, error) {
	registry := tools.NewInMemoryToolRegistry()

	funcs := []struct {
		name        string
		description string
		fn          interface{}
	}{
		{"read_file", "Read a text file from the workspace", w.readFile},
		{"list_dir", "List the entries of a workspace directory", w.listDir},
		{"write_file", "Create or overwrite a file in the workspace", w.writeFile},
		{"search_files", "Find lines containing a substring in workspace files", w.searchFiles},
	}
	for _, f := range funcs {
		if err := registry.RegisterFunc(f.name, f.description, f.fn); err != nil {
			return nil, errors.Wrapf(err, "failed to register %s tool", f.name)
		}
	}

	return registry, nil
}
