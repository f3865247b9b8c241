package contacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	b, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, b.Add(Contact{Name: "Alice Smith", Phone: "555-0100", Slack: "U123"}))
	require.NoError(t, b.Add(Contact{Name: "Bob", Email: "bob@example.com"}))
	assert.Error(t, b.Add(Contact{Name: "  "}))

	c, err := b.Get("alice smith")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", c.Phone)

	_, err = b.Get("carol")
	assert.ErrorIs(t, err, ErrNotFound)

	list := b.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Alice Smith", list[0].Name)

	// Reopen from disk.
	b2, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, b2.List(), 2)

	require.NoError(t, b2.Delete("BOB"))
	assert.ErrorIs(t, b2.Delete("bob"), ErrNotFound)
	assert.Len(t, b2.List(), 1)
}

func TestFuzzyFind(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "contacts.json"))
	require.NoError(t, err)
	require.NoError(t, b.Add(Contact{Name: "Alice Smith"}))
	require.NoError(t, b.Add(Contact{Name: "Bob Jones"}))

	c, err := b.Find("alsm")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", c.Name)

	c, err = b.Find("bob jones")
	require.NoError(t, err)
	assert.Equal(t, "Bob Jones", c.Name)

	_, err = b.Find("zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}
