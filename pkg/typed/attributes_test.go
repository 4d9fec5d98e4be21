package typed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/typed"
)

type Task struct {
	Status   string   `json:"status"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
	Done     bool     `json:"done"`
}

func TestAttributes_Codec(t *testing.T) {
	codec := typed.Attributes[Task]{}

	attrs, err := codec.Encode(Task{Status: "open", Priority: 2, Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, core.String("open"), attrs["status"])
	assert.Equal(t, core.Int(2), attrs["priority"])
	assert.Equal(t, core.List(core.String("a"), core.String("b")), attrs["tags"])
	assert.Equal(t, core.Bool(false), attrs["done"])

	got, err := codec.Decode(attrs)
	require.NoError(t, err)
	assert.Equal(t, Task{Status: "open", Priority: 2, Tags: []string{"a", "b"}}, got)

	t.Run("Unknown Keys Ignored", func(t *testing.T) {
		got, err := codec.Decode(map[string]core.Value{
			"status": core.String("done"),
			"color":  core.String("red"),
		})
		require.NoError(t, err)
		assert.Equal(t, "done", got.Status)
	})

	t.Run("Type Mismatch", func(t *testing.T) {
		_, err := codec.Decode(map[string]core.Value{"priority": core.String("high")})
		assert.Error(t, err)
	})

	t.Run("Non Object", func(t *testing.T) {
		_, err := typed.Attributes[[]int]{}.Encode([]int{1})
		assert.Error(t, err)
	})
}

func TestService_TypedNotes(t *testing.T) {
	ctx := context.Background()
	svc := core.NewService(nil)
	tasks := typed.NewService[Task](svc)

	m, err := tasks.Create(ctx, "Write docs", "draft the README", Task{Status: "open", Priority: 1})
	require.NoError(t, err)
	assert.Equal(t, "Write docs", m.Title)
	assert.Equal(t, "open", m.Data.Status)

	_, err = svc.SetAttribute(ctx, m.ID, "owner", core.String("sam"))
	require.NoError(t, err)

	m.Data.Status = "done"
	m.Data.Done = true
	m.Content = "README shipped"
	require.NoError(t, m.Save(ctx))

	got, err := tasks.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.Data.Status)
	assert.True(t, got.Data.Done)
	assert.Equal(t, "README shipped", got.Content)

	owner, ok, err := svc.Attribute(ctx, m.ID, "owner")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.String("sam"), owner)

	list, err := tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, tasks.Delete(ctx, m.ID))
	_, err = tasks.Get(ctx, m.ID)
	assert.ErrorIs(t, err, core.ErrNoteNotFound)
}

func TestNoteModel_Detached(t *testing.T) {
	m := &typed.NoteModel[Task]{ID: core.NewNoteID().String()}
	assert.Error(t, m.Save(context.Background()))
}
