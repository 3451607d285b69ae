package persistence

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// AuditedTables are the tables whose writes append an audit row
var AuditedTables = map[string]struct{}{
	"accounts": {},
	"products": {},
}

const snapshotKey = "bloom:audit_old"

// RegisterCallbacks attaches the mixin behavior to db. On stores without the
// audit trigger the audit rows are written by callbacks that run inside the
// statement's own transaction
func RegisterCallbacks(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("bloom:identity", assignIdentity); err != nil {
		return err
	}
	if db.Dialector.Name() == "postgres" {
		return nil
	}
	if err := db.Callback().Create().After("gorm:create").Register("bloom:audit_create", auditWrite("INSERT")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("bloom:audit_snapshot_update", auditSnapshot); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("bloom:audit_update", auditWrite("UPDATE")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("bloom:audit_snapshot_delete", auditSnapshot); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:delete").Register("bloom:audit_delete", auditWrite("DELETE"))
}

// assignIdentity fills primary keys, friendly ids and search text before
// insert
func assignIdentity(db *gorm.DB) {
	if db.Statement.Schema == nil {
		return
	}
	eachModel(db.Statement.ReflectValue, func(v interface{}) {
		id, ok := v.(internal.Identifier)
		if ok {
			if err := id.EnsureID(); err != nil {
				db.AddError(err)
				return
			}
		}
		if f, ok := v.(interface {
			internal.Kinded
			AssignFriendlyID(string, uuid.UUID)
		}); ok && id != nil {
			f.AssignFriendlyID(f.Kind(), id.PrimaryKey())
		}
		if s, ok := v.(internal.Searchable); ok {
			s.SetSearchText(s.SearchDocument())
		}
	})
}

func eachModel(rv reflect.Value, fn func(interface{})) {
	switch rv.Kind() {
	case reflect.Ptr:
		if !rv.IsNil() {
			eachModel(rv.Elem(), fn)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			eachModel(rv.Index(i), fn)
		}
	case reflect.Struct:
		if rv.CanAddr() {
			fn(rv.Addr().Interface())
		}
	}
}

func audited(db *gorm.DB) bool {
	if db.Error != nil || db.Statement.Schema == nil {
		return false
	}
	_, ok := AuditedTables[db.Statement.Table]
	return ok
}

func primaryKey(db *gorm.DB) (interface{}, bool) {
	s := db.Statement.Schema
	if s.PrioritizedPrimaryField == nil || db.Statement.ReflectValue.Kind() != reflect.Struct {
		return nil, false
	}
	v, zero := s.PrioritizedPrimaryField.ValueOf(db.Statement.Context, db.Statement.ReflectValue)
	return v, !zero
}

// auditSnapshot reads the row as it is before an update or delete
func auditSnapshot(db *gorm.DB) {
	if !audited(db) {
		return
	}
	pk, ok := primaryKey(db)
	if !ok {
		return
	}
	old := map[string]interface{}{}
	err := db.Session(&gorm.Session{NewDB: true, SkipHooks: true}).
		Unscoped().
		Table(db.Statement.Table).
		Where(db.Statement.Schema.PrioritizedPrimaryField.DBName+" = ?", pk).
		Take(&old).Error
	if err != nil {
		return
	}
	for _, f := range db.Statement.Schema.Fields {
		if f.Tag.Get("json") == "-" {
			delete(old, f.DBName)
		}
	}
	db.InstanceSet(snapshotKey, old)
}

func auditWrite(action string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if !audited(db) || db.Statement.RowsAffected == 0 {
			return
		}
		pk, ok := primaryKey(db)
		if !ok {
			return
		}
		op := action
		details := map[string]interface{}{"old": nil, "new": nil}
		old, hasOld := db.InstanceGet(snapshotKey)
		if hasOld {
			details["old"] = old
		}
		if op == "DELETE" && softDeleted(db) {
			// The store sees a soft delete as an UPDATE of deleted_at
			op = "UPDATE"
			if prev, ok := old.(map[string]interface{}); ok {
				next := make(map[string]interface{}, len(prev)+1)
				for k, v := range prev {
					next[k] = v
				}
				next["deleted_at"] = db.NowFunc()
				details["new"] = next
			}
		} else if op != "DELETE" {
			details["new"] = snapshot(db.Statement.Schema, db.Statement.ReflectValue)
		}
		raw, err := json.Marshal(details)
		if err != nil {
			db.AddError(err)
			return
		}
		id, err := internal.NewSortableID()
		if err != nil {
			db.AddError(err)
			return
		}

		actor := ActorFrom(db.Statement.Context)
		row := map[string]interface{}{
			"id":            id,
			"created_at":    db.NowFunc(),
			"action":        op,
			"resource_type": db.Statement.Table,
			"resource_id":   toString(pk),
			"account_id":    actor.AccountID,
			"details":       string(raw),
			"ip_address":    nullable(actor.IPAddress),
			"user_agent":    nullable(actor.UserAgent),
		}
		if err := db.Session(&gorm.Session{NewDB: true, SkipHooks: true}).Table("audit_logs").Create(row).Error; err != nil {
			db.AddError(err)
		}
	}
}

func softDeleted(db *gorm.DB) bool {
	if db.Statement.Unscoped {
		return false
	}
	f := db.Statement.Schema.LookUpField("deleted_at")
	return f != nil && f.FieldType == reflect.TypeOf(gorm.DeletedAt{})
}

func snapshot(s *schema.Schema, rv reflect.Value) map[string]interface{} {
	out := map[string]interface{}{}
	if rv.Kind() != reflect.Struct {
		return out
	}
	for _, f := range s.Fields {
		if f.DBName == "" || f.Tag.Get("json") == "-" {
			continue
		}
		if v, zero := f.ValueOf(context.Background(), rv); !zero {
			out[f.DBName] = v
		}
	}
	return out
}

func toString(v interface{}) string {
	if id, ok := v.(uuid.UUID); ok {
		return id.String()
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
