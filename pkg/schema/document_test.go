package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/schema"
)

func sampleNotebook(t *testing.T) *core.Notebook {
	t.Helper()
	nb := core.NewNotebook("Research", core.WithAcyclicLinks(true))
	a := nb.CreateNote("Alpha")
	b := nb.CreateNote("Beta")
	require.NoError(t, nb.LinkNotes(a, b))

	proto := nb.CreateNote("Template")
	pending := core.NewNoteID()
	require.NoError(t, nb.UpdateNote(a, func(n *core.Note) {
		n.SetContent("body")
		n.SetPosition(&core.Point2D{X: 1.5, Y: -2})
		n.SetSize(&core.Size{Width: 200, Height: 100})
		n.SetPrototype(&proto)
		n.AddLink(pending)
		n.SetAttribute("scores", core.List(core.Int(1), core.Number(2.5)))
		n.SetAttribute("meta", core.Map(map[string]core.Value{"done": core.Bool(false), "none": core.Null()}))
	}))
	return nb
}

func assertEquivalent(t *testing.T, want, got *core.Notebook) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.ModifiedAt.Equal(got.ModifiedAt))
	assert.Equal(t, want.Acyclic(), got.Acyclic())
	require.Equal(t, want.Len(), got.Len())
	for n := range want.AllNotes() {
		g, ok := got.GetNote(n.ID)
		require.True(t, ok)
		assert.True(t, n.Equal(g), "note %s differs:\nwant %+v\ngot  %+v", n.ID, n, g)
		assert.Equal(t, want.Backlinks(n.ID), got.Backlinks(n.ID))
	}
	require.NoError(t, got.CheckIntegrity())
}

func TestRoundTrip(t *testing.T) {
	t.Run("Populated", func(t *testing.T) {
		nb := sampleNotebook(t)
		got, err := schema.ToNotebook(schema.FromNotebook(nb))
		require.NoError(t, err)
		assertEquivalent(t, nb, got)
	})

	t.Run("Empty", func(t *testing.T) {
		nb := core.NewNotebook("")
		nb.Name = ""
		got, err := schema.ToNotebook(schema.FromNotebook(nb))
		require.NoError(t, err)
		assertEquivalent(t, nb, got)
	})

	t.Run("Through JSON", func(t *testing.T) {
		nb := sampleNotebook(t)
		data, err := json.Marshal(schema.FromNotebook(nb))
		require.NoError(t, err)

		var doc schema.Document
		require.NoError(t, json.Unmarshal(data, &doc))
		got, err := schema.ToNotebook(doc)
		require.NoError(t, err)
		assertEquivalent(t, nb, got)
	})
}

func TestFromNotebook_OmitsEmptyFields(t *testing.T) {
	nb := core.NewNotebook("plain")
	id := nb.CreateNote("bare")

	data, err := json.Marshal(schema.FromNotebook(nb))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "backlinks")
	assert.NotContains(t, raw, "acyclic")

	note := raw["notes"].(map[string]any)[id.String()].(map[string]any)
	for _, key := range []string{"position", "size", "links", "prototype", "attributes"} {
		assert.NotContains(t, note, key)
	}
}

func TestFromNotebook_Backlinks(t *testing.T) {
	nb := core.NewNotebook("links")
	a := nb.CreateNote("a")
	b := nb.CreateNote("b")
	c := nb.CreateNote("c")
	require.NoError(t, nb.LinkNotes(a, c))
	require.NoError(t, nb.LinkNotes(b, c))

	doc := schema.FromNotebook(nb)
	assert.ElementsMatch(t, []string{a.String(), b.String()}, doc.Backlinks[c.String()])
	assert.Len(t, doc.Backlinks, 1)
}

func TestToNotebook_IgnoresStoredBacklinks(t *testing.T) {
	nb := sampleNotebook(t)
	doc := schema.FromNotebook(nb)
	doc.Backlinks = map[string][]string{core.NewNoteID().String(): {core.NewNoteID().String()}}

	got, err := schema.ToNotebook(doc)
	require.NoError(t, err)
	assertEquivalent(t, nb, got)
}

func TestToNotebook_Invalid(t *testing.T) {
	anyKey := func(doc schema.Document) string {
		for k := range doc.Notes {
			return k
		}
		return ""
	}

	tests := []struct {
		name   string
		mutate func(doc *schema.Document)
	}{
		{"Missing Created At", func(doc *schema.Document) { doc.CreatedAt = "" }},
		{"Bad Modified At", func(doc *schema.Document) { doc.ModifiedAt = "yesterday" }},
		{"Mismatched Key", func(doc *schema.Document) {
			k := anyKey(*doc)
			rec := doc.Notes[k]
			rec.ID = core.NewNoteID().String()
			doc.Notes[k] = rec
		}},
		{"Bad Link", func(doc *schema.Document) {
			k := anyKey(*doc)
			rec := doc.Notes[k]
			rec.Links = []string{"nope"}
			doc.Notes[k] = rec
		}},
		{"Bad Size", func(doc *schema.Document) {
			k := anyKey(*doc)
			rec := doc.Notes[k]
			rec.Size = []float64{1}
			doc.Notes[k] = rec
		}},
		{"Bad Attribute", func(doc *schema.Document) {
			k := anyKey(*doc)
			rec := doc.Notes[k]
			rec.Attributes = map[string]any{"x": struct{}{}}
			doc.Notes[k] = rec
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := schema.FromNotebook(sampleNotebook(t))
			tt.mutate(&doc)
			_, err := schema.ToNotebook(doc)
			assert.Error(t, err)
		})
	}
}

func TestToNotebook_KeyFallback(t *testing.T) {
	nb := core.NewNotebook("k")
	id := nb.CreateNote("only")
	doc := schema.FromNotebook(nb)
	rec := doc.Notes[id.String()]
	rec.ID = ""
	doc.Notes[id.String()] = rec

	got, err := schema.ToNotebook(doc)
	require.NoError(t, err)
	assert.True(t, got.Contains(id))
}
