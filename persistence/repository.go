package persistence

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// QueryOption narrows a listing
type QueryOption func(*gorm.DB) *gorm.DB

// Paginate applies a page window
func Paginate(p internal.Page) QueryOption {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(p.Limit).Offset(p.Offset)
	}
}

// OrderBy sorts the listing
func OrderBy(order string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}

// Preload eagerly loads an association
func Preload(name string, args ...interface{}) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(name, args...)
	}
}

// Where adds a condition
func Where(query interface{}, args ...interface{}) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// Repository implements the operations every entity shares. Domain
// repositories embed it and add their own narrow queries
type Repository[E any] struct {
	DB *gorm.DB
}

func NewRepository[E any](db *gorm.DB) Repository[E] {
	return Repository[E]{DB: db}
}

// Conn returns the connection bound to ctx, joining its transaction if any
func (r Repository[E]) Conn(ctx context.Context) *gorm.DB {
	return Conn(ctx, r.DB)
}

func (r Repository[E]) name() string {
	var e E
	return entityName(e)
}

// Create inserts e. Ids, friendly ids and search text are filled by the
// registered callbacks
func (r Repository[E]) Create(ctx context.Context, e *E) error {
	if err := r.Conn(ctx).Create(e).Error; err != nil {
		return Translate(err, "Failed to create %s", r.name())
	}
	return nil
}

// Get retrieves a live row by primary key
func (r Repository[E]) Get(ctx context.Context, id uuid.UUID, opts ...QueryOption) (*E, error) {
	var e E
	if err := r.apply(r.Conn(ctx), opts).Where("id = ?", id).Take(&e).Error; err != nil {
		return nil, Translate(err, "%s %s does not exist", r.name(), id)
	}
	return &e, nil
}

// GetByFriendlyID retrieves a live row by its external reference
func (r Repository[E]) GetByFriendlyID(ctx context.Context, friendlyID string, opts ...QueryOption) (*E, error) {
	var e E
	if err := r.apply(r.Conn(ctx), opts).Where("friendly_id = ?", friendlyID).Take(&e).Error; err != nil {
		return nil, Translate(err, "%s %s does not exist", r.name(), friendlyID)
	}
	return &e, nil
}

// FindOneBy returns the first row matching every condition
func (r Repository[E]) FindOneBy(ctx context.Context, conds map[string]interface{}, opts ...QueryOption) (*E, error) {
	var e E
	if err := r.apply(r.Conn(ctx), opts).Where(conds).Take(&e).Error; err != nil {
		return nil, Translate(err, "%s does not exist", r.name())
	}
	return &e, nil
}

// Find lists rows matching conds
func (r Repository[E]) Find(ctx context.Context, conds map[string]interface{}, opts ...QueryOption) ([]E, error) {
	var out []E
	db := r.apply(r.Conn(ctx), opts)
	if len(conds) > 0 {
		db = db.Where(conds)
	}
	if err := db.Find(&out).Error; err != nil {
		return nil, Translate(err, "Failed to list %s", r.name())
	}
	return out, nil
}

// Update writes the fields present in changes, refreshes updated_at and
// returns the stored row
func (r Repository[E]) Update(ctx context.Context, id uuid.UUID, changes interface{}) (*E, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stmt := &gorm.Statement{DB: r.DB}
	if err := stmt.Parse(current); err != nil {
		return nil, Translate(err, "Failed to parse %s", r.name())
	}
	fields := updatable(stmt.Schema, Changes(changes))
	if len(fields) == 0 {
		return current, nil
	}
	if doc, ok := nextSearch(ctx, stmt.Schema, *current, fields); ok {
		fields["search_text"] = doc
	}
	if _, ok := interface{}(current).(interface{ Touch(time.Time) }); ok {
		fields["updated_at"] = r.DB.NowFunc()
	}
	if err := r.Conn(ctx).Model(current).Updates(fields).Error; err != nil {
		return nil, Translate(err, "Failed to update %s %s", r.name(), id)
	}
	return r.Get(ctx, id)
}

// updatable drops the columns that are write-once, like friendly ids
func updatable(s *schema.Schema, fields map[string]interface{}) map[string]interface{} {
	for column := range fields {
		if f := s.LookUpField(column); f != nil && !f.Updatable {
			delete(fields, column)
		}
	}
	return fields
}

// nextSearch returns the search document e will have once fields are applied,
// when it differs from the stored one. The refresh then lands in the same
// statement as the change
func nextSearch[E any](ctx context.Context, s *schema.Schema, e E, fields map[string]interface{}) (string, bool) {
	rv := reflect.ValueOf(&e).Elem()
	for column, v := range fields {
		if f := s.LookUpField(column); f != nil {
			if err := f.Set(ctx, rv, v); err != nil {
				return "", false
			}
		}
	}
	searchable, ok := interface{}(&e).(internal.Searchable)
	if !ok {
		return "", false
	}
	doc := internal.SearchDocument(searchable.SearchDocument())
	return doc, doc != searchable.SearchValue()
}

// Save writes every field of e
func (r Repository[E]) Save(ctx context.Context, e *E) error {
	if t, ok := interface{}(e).(interface{ Touch(time.Time) }); ok {
		t.Touch(r.DB.NowFunc())
	}
	if s, ok := interface{}(e).(internal.Searchable); ok {
		s.SetSearchText(s.SearchDocument())
	}
	if err := r.Conn(ctx).Save(e).Error; err != nil {
		return Translate(err, "Failed to save %s", r.name())
	}
	return nil
}

// Delete soft deletes entities that support it and hard deletes the rest.
// Deleting a row that is already gone is not an error
func (r Repository[E]) Delete(ctx context.Context, id uuid.UUID) error {
	var e E
	err := r.Conn(ctx).Where("id = ?", id).Take(&e).Error
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return Translate(err, "Failed to delete %s %s", r.name(), id)
	}
	if err := r.Conn(ctx).Delete(&e).Error; err != nil {
		return Translate(err, "Failed to delete %s %s", r.name(), id)
	}
	return nil
}

// Purge removes the row permanently, ignoring soft delete
func (r Repository[E]) Purge(ctx context.Context, id uuid.UUID) error {
	var e E
	if err := r.Conn(ctx).Unscoped().Where("id = ?", id).Delete(&e).Error; err != nil {
		return Translate(err, "Failed to purge %s %s", r.name(), id)
	}
	return nil
}

// FindOrCreate returns the row matching conds or inserts the one built by
// build. It relies on a unique index covering conds, see CreateOrFind. The
// returned bool reports whether this call created it
func (r Repository[E]) FindOrCreate(ctx context.Context, conds map[string]interface{}, build func() E) (*E, bool, error) {
	if found, err := r.FindOneBy(ctx, conds); err == nil {
		return found, false, nil
	} else if !IsNotFound(err) {
		return nil, false, err
	}
	return r.CreateOrFind(ctx, conds, build)
}

// CreateOrFind inserts the row built by build and reads the row matching
// conds back when the insert hit the unique index covering conds. Concurrent
// callers all end up with the same row and exactly one of them reports it
// as created
func (r Repository[E]) CreateOrFind(ctx context.Context, conds map[string]interface{}, build func() E) (*E, bool, error) {
	e := build()
	res := r.Conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
	if res.Error != nil {
		return nil, false, Translate(res.Error, "Failed to create %s", r.name())
	}
	if res.RowsAffected == 1 {
		return &e, true, nil
	}

	found, err := r.FindOneBy(ctx, conds)
	if err != nil {
		if IsNotFound(err) {
			// The conflicting row doesn't match conds, e.g. it was soft deleted
			return nil, false, internal.WrapErrorf(err, internal.ErrorCodeConflict, "%s already exists", r.name())
		}
		return nil, false, err
	}
	return found, false, nil
}

// Count returns the number of live rows matching conds
func (r Repository[E]) Count(ctx context.Context, conds map[string]interface{}) (int64, error) {
	var (
		e     E
		count int64
	)
	db := r.Conn(ctx).Model(&e)
	if len(conds) > 0 {
		db = db.Where(conds)
	}
	if err := db.Count(&count).Error; err != nil {
		return 0, Translate(err, "Failed to count %s", r.name())
	}
	return count, nil
}

func (r Repository[E]) apply(db *gorm.DB, opts []QueryOption) *gorm.DB {
	for _, opt := range opts {
		db = opt(db)
	}
	return db
}

// Search matches query against the search document of E. PostgreSQL ranks
// the generated search_vector column, other stores fall back to a substring
// match on search_text
func (r Repository[E]) Search(ctx context.Context, query string, page internal.Page, opts ...QueryOption) ([]E, error) {
	var out []E
	doc := internal.SearchDocument(query)
	db := r.apply(r.Conn(ctx), append(opts, Paginate(page)))
	if doc == "" {
		if err := db.Find(&out).Error; err != nil {
			return nil, Translate(err, "Failed to search %s", r.name())
		}
		return out, nil
	}
	if r.DB.Dialector.Name() == "postgres" {
		db = db.Where("search_vector @@ plainto_tsquery('simple', ?)", doc).
			Order(clause.OrderBy{Expression: clause.Expr{SQL: "ts_rank(search_vector, plainto_tsquery('simple', ?)) DESC", Vars: []interface{}{doc}}})
	} else {
		for _, term := range strings.Fields(doc) {
			db = db.Where("search_text LIKE ?", "%"+term+"%")
		}
	}
	if err := db.Find(&out).Error; err != nil {
		return nil, Translate(err, "Failed to search %s", r.name())
	}
	return out, nil
}
