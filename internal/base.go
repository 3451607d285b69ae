package internal

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

// Identifier is implemented by entities that own a single surrogate key
type Identifier interface {
	PrimaryKey() uuid.UUID
	EnsureID() error
}

// Kinded is implemented by entities that expose a type tag
type Kinded interface {
	Kind() string
}

// RandomID defines a random (v4) primary key
type RandomID struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
}

func (i *RandomID) PrimaryKey() uuid.UUID {
	return i.ID
}

// EnsureID generates a key if one hasn't been set yet
func (i *RandomID) EnsureID() error {
	if !i.ID.IsNil() {
		return nil
	}
	id, err := NewID()
	if err != nil {
		return err
	}
	i.ID = id
	return nil
}

// SortableID defines a time-sortable (v7) primary key. Used on tables that
// see heavy insert volume so new rows land at the end of the index
type SortableID struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
}

func (i *SortableID) PrimaryKey() uuid.UUID {
	return i.ID
}

func (i *SortableID) EnsureID() error {
	if !i.ID.IsNil() {
		return nil
	}
	id, err := NewSortableID()
	if err != nil {
		return err
	}
	i.ID = id
	return nil
}

// Timestamps defines creation and last update time. UpdatedAt stays null
// until the first update
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at" gorm:"index;not null;autoCreateTime;<-:create"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" gorm:"index;default:null;autoUpdateTime:false"`
}

// Touch sets UpdatedAt
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = &now
}

// SoftDelete defines a nullable deletion timestamp. Rows with one set are
// hidden from regular queries and deleting them again is a no-op
type SoftDelete struct {
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index;default:null"`
}

// Deleted reports whether the row has been marked
func (s SoftDelete) Deleted() bool {
	return s.DeletedAt.Valid
}

// Friendly defines the external reference of an entity. It is assigned once
// on insert and never updated
type Friendly struct {
	FriendlyID string `json:"friendly_id" gorm:"uniqueIndex;size:16;not null;<-:create"`
}

// AssignFriendlyID sets the friendly id if it hasn't been set
func (f *Friendly) AssignFriendlyID(kind string, id uuid.UUID) {
	if f.FriendlyID != "" || id.IsNil() {
		return
	}
	f.FriendlyID = FriendlyID(kind, id)
}

// Search defines the plain search document. On PostgreSQL a generated
// search_vector column is derived from it during migration
type Search struct {
	SearchText string `json:"-" gorm:"type:text;not null;default:''"`
}

// SetSearchText normalizes and stores the search document
func (s *Search) SetSearchText(doc string) {
	s.SearchText = SearchDocument(doc)
}

// SearchValue returns the stored document
func (s *Search) SearchValue() string {
	return s.SearchText
}

// Searchable is implemented by entities that embed Search and describe
// their document
type Searchable interface {
	SearchDocument() string
	SetSearchText(string)
	SearchValue() string
}

// Pair defines a composite key. Equality holds over both parts
type Pair[A comparable, B comparable] struct {
	First  A
	Second B
}

// NewPair returns a composite key
func NewPair[A comparable, B comparable](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

// Equal compares the whole tuple
func (p Pair[A, B]) Equal(o Pair[A, B]) bool {
	return p == o
}

// NewID returns a random v4 uuid
func NewID() (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, WrapErrorf(err, ErrorCodeInternal, "%v", ErrFailedID)
	}
	return id, nil
}

// NewSortableID returns a v7 uuid whose leading 48 bits are the unix
// milliseconds of its creation
func NewSortableID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, WrapErrorf(err, ErrorCodeInternal, "%v", ErrFailedID)
	}
	return id, nil
}
