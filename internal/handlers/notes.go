package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
)

type createNoteParams struct {
	Content  string   `mapstructure:"content"`
	Category string   `mapstructure:"category"`
	Tags     []string `mapstructure:"tags"`
}

func (p *createNoteParams) Validate() error { return registry.Require("content", p.Content) }

type listNotesParams struct {
	Category string `mapstructure:"category"`
	Query    string `mapstructure:"query"`
	Limit    int    `mapstructure:"limit"`
}

type deleteNoteParams struct {
	ID int `mapstructure:"id"`
}

func (p *deleteNoteParams) Validate() error {
	if p.ID <= 0 {
		return registry.Require("id", "")
	}
	return nil
}

func (h *handlers) registerNotes(b *registry.Builder) {
	b.Handle(command.CreateNote, registry.Typed(h.createNote)).
		Handle(command.ListNotes, registry.Typed(h.listNotes)).
		Handle(command.DeleteNote, registry.Typed(h.deleteNote))
}

func (h *handlers) notesAvailable() error {
	if h.Notes == nil {
		return fmt.Errorf("notes: %w", ErrUnavailable)
	}
	return nil
}

func (h *handlers) createNote(_ context.Context, p createNoteParams) (*command.Result, error) {
	if err := h.notesAvailable(); err != nil {
		return nil, err
	}
	n, err := h.Notes.Add(p.Content, p.Category, p.Tags)
	if err != nil {
		return nil, err
	}
	return command.OK("Note #%d saved in %s", n.ID, n.Category).With("note", n), nil
}

func (h *handlers) listNotes(_ context.Context, p listNotesParams) (*command.Result, error) {
	if err := h.notesAvailable(); err != nil {
		return nil, err
	}
	list := h.Notes.List(p.Category, p.Limit)
	if p.Query != "" {
		list = h.Notes.Search(p.Query)
	}
	if len(list) == 0 {
		return command.OK("No notes found").With("notes", list), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d notes:", len(list))
	for _, n := range list {
		pin := ""
		if n.Pinned {
			pin = " (pinned)"
		}
		fmt.Fprintf(&sb, "\n#%d [%s]%s %s", n.ID, n.Category, pin, n.Content)
	}
	return command.OK("%s", sb.String()).With("notes", list), nil
}

func (h *handlers) deleteNote(_ context.Context, p deleteNoteParams) (*command.Result, error) {
	if err := h.notesAvailable(); err != nil {
		return nil, err
	}
	if err := h.Notes.Delete(p.ID); err != nil {
		return nil, err
	}
	return command.OK("Note #%d deleted", p.ID), nil
}
