package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/contacts"
	"github.com/nadzzz/deskpilot/internal/registry"
)

type addContactParams struct {
	Name  string `mapstructure:"name"`
	Phone string `mapstructure:"phone"`
	Email string `mapstructure:"email"`
	Slack string `mapstructure:"slack"`
}

func (p *addContactParams) Validate() error { return registry.Require("name", p.Name) }

type nameParams struct {
	Name string `mapstructure:"name"`
}

func (p *nameParams) Validate() error { return registry.Require("name", p.Name) }

type sendMessageParams struct {
	ContactName string `mapstructure:"contact_name"`
	Channel     string `mapstructure:"channel"`
	Message     string `mapstructure:"message"`
}

func (p *sendMessageParams) Validate() error { return registry.Require("message", p.Message) }

func (h *handlers) registerContacts(b *registry.Builder) {
	b.Handle(command.AddContact, registry.Typed(h.addContact)).
		Handle(command.ListContacts, h.listContacts).
		Handle(command.GetContact, registry.Typed(h.getContact)).
		Handle(command.DeleteContact, registry.Typed(h.deleteContact)).
		Handle(command.SendMessage, registry.Typed(h.sendMessage))
}

func (h *handlers) contactsAvailable() error {
	if h.Contacts == nil {
		return fmt.Errorf("contacts: %w", ErrUnavailable)
	}
	return nil
}

func describeContact(c contacts.Contact) string {
	parts := []string{c.Name}
	if c.Phone != "" {
		parts = append(parts, "phone "+c.Phone)
	}
	if c.Email != "" {
		parts = append(parts, "email "+c.Email)
	}
	if c.Slack != "" {
		parts = append(parts, "slack "+c.Slack)
	}
	return strings.Join(parts, ", ")
}

func (h *handlers) addContact(_ context.Context, p addContactParams) (*command.Result, error) {
	if err := h.contactsAvailable(); err != nil {
		return nil, err
	}
	c := contacts.Contact{Name: p.Name, Phone: p.Phone, Email: p.Email, Slack: p.Slack}
	if err := h.Contacts.Add(c); err != nil {
		return nil, err
	}
	return command.OK("Contact %s saved", c.Name).With("contact", c), nil
}

func (h *handlers) listContacts(_ context.Context, _ command.Params) (*command.Result, error) {
	if err := h.contactsAvailable(); err != nil {
		return nil, err
	}
	list := h.Contacts.List()
	if len(list) == 0 {
		return command.OK("No contacts saved").With("contacts", list), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d contacts:", len(list))
	for _, c := range list {
		sb.WriteString("\n  ")
		sb.WriteString(describeContact(c))
	}
	return command.OK("%s", sb.String()).With("contacts", list), nil
}

func (h *handlers) getContact(_ context.Context, p nameParams) (*command.Result, error) {
	if err := h.contactsAvailable(); err != nil {
		return nil, err
	}
	c, err := h.Contacts.Find(p.Name)
	if err != nil {
		return nil, err
	}
	return command.OK("%s", describeContact(c)).With("contact", c), nil
}

func (h *handlers) deleteContact(_ context.Context, p nameParams) (*command.Result, error) {
	if err := h.contactsAvailable(); err != nil {
		return nil, err
	}
	if err := h.Contacts.Delete(p.Name); err != nil {
		return nil, err
	}
	return command.OK("Contact %s deleted", p.Name), nil
}

// sendMessage resolves contact_name to its Slack ID; an explicit channel
// wins over the contact.
func (h *handlers) sendMessage(ctx context.Context, p sendMessageParams) (*command.Result, error) {
	to := p.Channel
	who := p.Channel
	if to == "" && p.ContactName != "" {
		if err := h.contactsAvailable(); err != nil {
			return nil, err
		}
		c, err := h.Contacts.Find(p.ContactName)
		if err != nil {
			return nil, err
		}
		if c.Slack == "" {
			return nil, fmt.Errorf("contact %s has no slack id", c.Name)
		}
		to, who = c.Slack, c.Name
	}
	if err := h.Messenger.Send(ctx, to, p.Message); err != nil {
		return nil, err
	}
	if who == "" {
		who = "default channel"
	}
	return command.OK("Message sent to %s", who), nil
}
