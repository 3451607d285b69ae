package persistence

import (
	"fmt"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/address"
	"github.com/RagOfJoes/bloom/attachment"
	"github.com/RagOfJoes/bloom/audit"
	"github.com/RagOfJoes/bloom/cart"
	"github.com/RagOfJoes/bloom/catalog"
	"github.com/RagOfJoes/bloom/inventory"
	"github.com/RagOfJoes/bloom/kyc"
	"github.com/RagOfJoes/bloom/locale"
	"github.com/RagOfJoes/bloom/notification"
	"github.com/RagOfJoes/bloom/order"
	"github.com/RagOfJoes/bloom/permission"
	"github.com/RagOfJoes/bloom/resale"
	"github.com/RagOfJoes/bloom/review"
	"github.com/RagOfJoes/bloom/token"
	"github.com/RagOfJoes/bloom/wishlist"
	"gorm.io/gorm"
)

// SearchTables carry a search_text column. PostgreSQL derives an indexed
// search_vector from it
var SearchTables = []string{"accounts", "categories", "products", "countries"}

// Models lists every entity of the schema
func Models() []interface{} {
	return []interface{}{
		&locale.Currency{},
		&locale.Country{},

		&account.Account{},
		&account.AccountType{},
		&account.AccountTypeGroup{},
		&account.AccountTypeInfo{},
		&permission.Permission{},
		&permission.Grant{},
		&address.Address{},

		&catalog.Category{},
		&catalog.Product{},
		&catalog.ProductItem{},
		&resale.Request{},
		&inventory.Inventory{},
		&inventory.Action{},

		&cart.Cart{},
		&cart.Item{},
		&wishlist.Wishlist{},
		&wishlist.Item{},
		&order.Order{},
		&order.Item{},
		&order.Invoice{},

		&attachment.Blob{},
		&attachment.Attachment{},
		&attachment.Variant{},

		&review.Review{},
		&notification.Notification{},
		&notification.Preference{},
		&kyc.DocumentType{},
		&kyc.Document{},
		&kyc.Attempt{},
		&token.Token{},
		&audit.Log{},
	}
}

// Migrate brings the schema up to date. On PostgreSQL it also installs the
// search columns and the audit triggers
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range postgresStatements() {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to run %q: %w", stmt, err)
			}
		}
		return nil
	})
}

const auditFunction = `CREATE OR REPLACE FUNCTION bloom_audit() RETURNS trigger AS $$
DECLARE
	old_row jsonb;
	new_row jsonb;
BEGIN
	IF TG_OP IN ('UPDATE', 'DELETE') THEN
		old_row := to_jsonb(OLD) - 'password_hash' - 'search_text' - 'search_vector';
	END IF;
	IF TG_OP IN ('INSERT', 'UPDATE') THEN
		new_row := to_jsonb(NEW) - 'password_hash' - 'search_text' - 'search_vector';
	END IF;
	INSERT INTO audit_logs (id, created_at, action, resource_type, resource_id, account_id, details, ip_address, user_agent)
	VALUES (
		gen_random_uuid(),
		now(),
		TG_OP,
		TG_TABLE_NAME,
		coalesce(new_row->>'id', old_row->>'id'),
		nullif(current_setting('bloom.account_id', true), '')::uuid,
		jsonb_build_object('old', old_row, 'new', new_row),
		nullif(current_setting('bloom.ip_address', true), ''),
		nullif(current_setting('bloom.user_agent', true), '')
	);
	RETURN coalesce(NEW, OLD);
END;
$$ LANGUAGE plpgsql`

func postgresStatements() []string {
	stmts := make([]string, 0, 2*len(SearchTables)+1+2*len(AuditedTables))
	for _, table := range SearchTables {
		stmts = append(stmts,
			fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS search_vector tsvector GENERATED ALWAYS AS (to_tsvector('simple', coalesce(search_text, ''))) STORED`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_search_vector ON %s USING GIN (search_vector)`, table, table),
		)
	}
	stmts = append(stmts, auditFunction)
	for table := range AuditedTables {
		stmts = append(stmts,
			fmt.Sprintf(`DROP TRIGGER IF EXISTS bloom_audit_%s ON %s`, table, table),
			fmt.Sprintf(`CREATE TRIGGER bloom_audit_%s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION bloom_audit()`, table, table),
		)
	}
	return stmts
}
