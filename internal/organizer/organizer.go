// Package organizer sorts a downloads folder into category subfolders.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Others holds files whose extension matches no category.
const Others = "Others"

// DefaultCategories maps folder names to lowercase extensions.
var DefaultCategories = map[string][]string{
	"Images":     {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".ico", ".webp"},
	"Documents":  {".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".xls", ".xlsx", ".ppt", ".pptx"},
	"Videos":     {".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"},
	"Audio":      {".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma"},
	"Archives":   {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
	"Installers": {".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm", ".apk"},
	"Code":       {".py", ".js", ".java", ".cpp", ".c", ".html", ".css", ".php", ".rb", ".go"},
	"Data":       {".json", ".xml", ".csv", ".sql", ".db", ".sqlite"},
}

// partial marks in-progress browser downloads, which are left alone.
var partial = map[string]bool{".crdownload": true, ".part": true, ".partial": true, ".download": true, ".tmp": true}

// Move is one file that was relocated.
type Move struct {
	File     string `json:"file"`
	Category string `json:"category"`
	Dest     string `json:"dest"`
}

// CategoryStats is the content of one category folder.
type CategoryStats struct {
	Category string  `json:"category"`
	Files    int     `json:"files"`
	SizeMB   float64 `json:"size_mb"`
}

// Organizer sorts one directory.
type Organizer struct {
	dir   string
	byExt map[string]string
	names []string
}

// New returns an organizer for dir. A nil categories map uses
// DefaultCategories.
func New(dir string, categories map[string][]string) *Organizer {
	if categories == nil {
		categories = DefaultCategories
	}
	o := &Organizer{dir: dir, byExt: make(map[string]string)}
	for name, exts := range categories {
		o.names = append(o.names, name)
		for _, ext := range exts {
			o.byExt[strings.ToLower(ext)] = name
		}
	}
	sort.Strings(o.names)
	return o
}

// Dir returns the organized directory.
func (o *Organizer) Dir() string { return o.dir }

// Category returns the folder a file name belongs in.
func (o *Organizer) Category(name string) string {
	if c, ok := o.byExt[strings.ToLower(filepath.Ext(name))]; ok {
		return c
	}
	return Others
}

// Organize moves every top-level file of the directory into its category
// folder.
func (o *Organizer) Organize(ctx context.Context) ([]Move, error) {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", o.dir, err)
	}
	var moves []Move
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return moves, err
		}
		if !e.Type().IsRegular() || skip(e.Name()) {
			continue
		}
		m, err := o.MoveFile(filepath.Join(o.dir, e.Name()))
		if err != nil {
			return moves, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

func skip(name string) bool {
	return strings.HasPrefix(name, ".") || partial[strings.ToLower(filepath.Ext(name))]
}

// MoveFile relocates one file. A name already taken in the category folder
// gets a _N suffix.
func (o *Organizer) MoveFile(path string) (Move, error) {
	name := filepath.Base(path)
	category := o.Category(name)
	folder := filepath.Join(o.dir, category)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return Move{}, fmt.Errorf("creating %s: %w", folder, err)
	}
	dest, err := freeName(folder, name)
	if err != nil {
		return Move{}, err
	}
	if err := os.Rename(path, dest); err != nil {
		return Move{}, fmt.Errorf("moving %s: %w", name, err)
	}
	return Move{File: name, Category: category, Dest: dest}, nil
}

func freeName(folder, name string) (string, error) {
	dest := filepath.Join(folder, name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		_, err := os.Stat(dest)
		if errors.Is(err, fs.ErrNotExist) {
			return dest, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", dest, err)
		}
		dest = filepath.Join(folder, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
}

// Stats reports file counts and sizes per existing category folder, largest
// first.
func (o *Organizer) Stats() ([]CategoryStats, error) {
	var out []CategoryStats
	for _, name := range append(append([]string(nil), o.names...), Others) {
		entries, err := os.ReadDir(filepath.Join(o.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		cs := CategoryStats{Category: name}
		var size int64
		for _, e := range entries {
			info, err := e.Info()
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			cs.Files++
			size += info.Size()
		}
		cs.SizeMB = float64(size*100/(1024*1024)) / 100
		out = append(out, cs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SizeMB > out[j].SizeMB })
	return out, nil
}
