package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
)

// maxSearchResults bounds search_files.
const maxSearchResults = 50

var errSearchFull = errors.New("search result limit reached")

type searchFilesParams struct {
	Pattern   string `mapstructure:"pattern"`
	Directory string `mapstructure:"directory"`
}

func (p *searchFilesParams) Validate() error { return registry.Require("pattern", p.Pattern) }

func (h *handlers) registerFiles(b *registry.Builder) {
	b.Handle(command.SearchFiles, registry.Typed(h.searchFiles)).
		Handle(command.OrganizeDownloads, h.organizeDownloads)
}

// globPattern lowercases a pattern and wraps a bare word in wildcards.
func globPattern(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if !strings.ContainsAny(p, "*?[") {
		p = "*" + p + "*"
	}
	return p
}

func (h *handlers) searchFiles(ctx context.Context, p searchFilesParams) (*command.Result, error) {
	dir := p.Directory
	if known, ok := h.Folders[strings.ToLower(dir)]; ok {
		dir = known
	}
	if dir == "" {
		dir = h.Folders["home"]
	}
	if dir == "" {
		dir = "."
	}
	pattern := globPattern(p.Pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q", registry.ErrInvalidParams, p.Pattern)
	}

	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, strings.ToLower(name)); ok {
			found = append(found, path)
			if len(found) >= maxSearchResults {
				return errSearchFull
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSearchFull) {
		return nil, fmt.Errorf("searching %s: %w", dir, err)
	}

	if len(found) == 0 {
		return command.OK("No files matching %s in %s", p.Pattern, dir).With("files", []string{}), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d files matching %s:", len(found), p.Pattern)
	for _, f := range found {
		sb.WriteString("\n  ")
		sb.WriteString(f)
	}
	return command.OK("%s", sb.String()).With("files", found), nil
}

func (h *handlers) organizeDownloads(ctx context.Context, _ command.Params) (*command.Result, error) {
	if h.Organizer == nil {
		return nil, fmt.Errorf("downloads organizer: %w", ErrUnavailable)
	}
	if _, err := os.Stat(h.Organizer.Dir()); err != nil {
		return nil, fmt.Errorf("download folder not found: %s", h.Organizer.Dir())
	}
	moves, err := h.Organizer.Organize(ctx)
	if err != nil {
		return nil, err
	}
	if len(moves) == 0 {
		return command.OK("No files to organize"), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Organized %d files:", len(moves))
	for i, m := range moves {
		if i == 10 {
			fmt.Fprintf(&sb, "\n  ... and %d more", len(moves)-10)
			break
		}
		fmt.Fprintf(&sb, "\n  %s -> %s", m.File, m.Category)
	}
	return command.OK("%s", sb.String()).With("files", moves), nil
}
