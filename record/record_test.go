package record

import (
	"context"
	"testing"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyRef(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	for _, test := range []struct {
		name   string
		family Family
		tag    string
		id     uuid.UUID
		valid  bool
	}{
		{name: "Member", family: Cartable, tag: "product", id: id, valid: true},
		{name: "Padded Member", family: Cartable, tag: " product_item ", id: id, valid: true},
		{name: "Outside Family", family: Cartable, tag: "category", id: id},
		{name: "Unknown Kind", family: Addressable, tag: "warehouse", id: id},
		{name: "Nil ID", family: Addressable, tag: "order", id: uuid.Nil},
	} {
		t.Run(test.name, func(t *testing.T) {
			ref, err := test.family.Ref(test.tag, test.id)
			if !test.valid {
				require.Error(t, err)
				assert.Equal(t, internal.ErrorCodeInvalidArgument, internal.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, test.family.Has(ref.Type))
			assert.Equal(t, test.id, ref.ID)
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	ctx := context.Background()
	live := uuid.Must(uuid.NewV4())
	registry := NewRegistry()
	registry.Register(KindProduct, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		if id == live {
			return "product", nil
		}
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "product %s does not exist", id)
	})

	t.Run("Live Target", func(t *testing.T) {
		v, err := registry.Resolve(ctx, Wishable, Ref{Type: KindProduct, ID: live})
		require.NoError(t, err)
		assert.Equal(t, "product", v)
	})

	t.Run("Missing Target", func(t *testing.T) {
		err := registry.Exists(ctx, Wishable, Ref{Type: KindProduct, ID: uuid.Must(uuid.NewV4())})
		assert.True(t, internal.IsCode(err, internal.ErrorCodeNotFound))
	})

	t.Run("Kind Outside Family", func(t *testing.T) {
		err := registry.Exists(ctx, Addressable, Ref{Type: KindProduct, ID: live})
		assert.True(t, internal.IsCode(err, internal.ErrorCodeInvalidArgument))
	})

	t.Run("No Lookup", func(t *testing.T) {
		err := registry.Exists(ctx, Wishable, Ref{Type: KindProductItem, ID: live})
		assert.ErrorIs(t, err, ErrNoLookup)
		assert.True(t, internal.IsCode(err, internal.ErrorCodeInternal))
	})
}
