package record

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
)

// Kind is the type tag stored in the *_type column of a polymorphic pair
type Kind string

const (
	KindAccount         Kind = "account"
	KindAccountTypeInfo Kind = "account_type_info"
	KindProduct         Kind = "product"
	KindProductItem     Kind = "product_item"
	KindCategory        Kind = "category"
	KindOrder           Kind = "order"
	KindKYCDocument     Kind = "kyc_document"
	KindAttachment      Kind = "attachment"
)

// Errors
var (
	ErrUnknownKind    = errors.New("Unsupported record type")
	ErrRecordNotFound = errors.New("Referenced record does not exist")
	ErrNoLookup       = errors.New("No lookup registered for record type")
)

// Family is a closed set of kinds one relationship may point to
type Family struct {
	name  string
	kinds map[Kind]struct{}
}

// Relationship families
var (
	Cartable      = NewFamily("cartable", KindProduct, KindProductItem)
	Orderable     = NewFamily("orderable", KindProduct, KindProductItem)
	Wishable      = NewFamily("wishable", KindProduct, KindProductItem)
	Reviewable    = NewFamily("reviewable", KindProduct, KindProductItem)
	Inventoriable = NewFamily("inventoriable", KindProduct, KindProductItem)
	Addressable   = NewFamily("addressable", KindAccountTypeInfo, KindOrder)
	Attachable    = NewFamily("attachable", KindAccount, KindAccountTypeInfo, KindProduct, KindProductItem, KindCategory, KindKYCDocument)
)

func NewFamily(name string, kinds ...Kind) Family {
	f := Family{name: name, kinds: make(map[Kind]struct{}, len(kinds))}
	for _, k := range kinds {
		f.kinds[k] = struct{}{}
	}
	return f
}

func (f Family) Name() string {
	return f.name
}

// Has checks whether kind belongs to the family
func (f Family) Has(kind Kind) bool {
	_, ok := f.kinds[kind]
	return ok
}

// Kinds returns the members sorted
func (f Family) Kinds() []Kind {
	out := make([]Kind, 0, len(f.kinds))
	for k := range f.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ref validates tag against the family and returns the typed reference
func (f Family) Ref(tag string, id uuid.UUID) (Ref, error) {
	kind := Kind(strings.TrimSpace(tag))
	if !f.Has(kind) {
		return Ref{}, internal.WrapErrorf(ErrUnknownKind, internal.ErrorCodeInvalidArgument, "%s_type must be one of %v, got %q", f.name, f.Kinds(), tag)
	}
	if id.IsNil() {
		return Ref{}, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "%s_id must be a valid UUID", f.name)
	}
	return Ref{Type: kind, ID: id}, nil
}

// Ref is a validated (type, id) pair
type Ref struct {
	Type Kind      `json:"type"`
	ID   uuid.UUID `json:"id"`
}

func (r Ref) String() string {
	return string(r.Type) + ":" + r.ID.String()
}

// Lookup loads a live row of one kind. Implementations must return a
// NotFound error when the row doesn't exist or was soft deleted
type Lookup func(ctx context.Context, id uuid.UUID) (interface{}, error)

// Registry maps kinds to the lookups that can load them
type Registry struct {
	mu      sync.RWMutex
	lookups map[Kind]Lookup
}

func NewRegistry() *Registry {
	return &Registry{lookups: map[Kind]Lookup{}}
}

// Register sets the lookup of kind
func (r *Registry) Register(kind Kind, l Lookup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups[kind] = l
}

// Resolve checks ref belongs to family and loads the row it points to
func (r *Registry) Resolve(ctx context.Context, f Family, ref Ref) (interface{}, error) {
	if !f.Has(ref.Type) {
		return nil, internal.WrapErrorf(ErrUnknownKind, internal.ErrorCodeInvalidArgument, "%s_type must be one of %v, got %q", f.name, f.Kinds(), ref.Type)
	}
	r.mu.RLock()
	l, ok := r.lookups[ref.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, internal.WrapErrorf(ErrNoLookup, internal.ErrorCodeInternal, "%v: %s", ErrNoLookup, ref.Type)
	}
	v, err := l(ctx, ref.ID)
	if err != nil {
		if internal.IsCode(err, internal.ErrorCodeNotFound) {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeNotFound, "%s %s does not exist", ref.Type, ref.ID)
		}
		return nil, err
	}
	if v == nil {
		return nil, internal.WrapErrorf(ErrRecordNotFound, internal.ErrorCodeNotFound, "%s %s does not exist", ref.Type, ref.ID)
	}
	return v, nil
}

// Exists is Resolve without the loaded value
func (r *Registry) Exists(ctx context.Context, f Family, ref Ref) error {
	_, err := r.Resolve(ctx, f, ref)
	return err
}
