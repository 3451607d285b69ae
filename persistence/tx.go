package persistence

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type (
	txKey    struct{}
	hooksKey struct{}
)

// Transactor runs fn inside a transaction. Repositories reached through the
// context handed to fn join it
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	DB *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{DB: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise,
// including on panic. Nested calls become savepoints
func (g *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFrom(ctx); ok {
		return Conn(ctx, g.DB).Transaction(func(tx *gorm.DB) error {
			return fn(WithTx(ctx, tx))
		})
	}

	ctx, hooks := WithCommitHooks(ctx)
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
	if err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

// NopTransactor calls fn directly. Used by tests that mock repositories
type NopTransactor struct{}

func (NopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// WithTx stores tx in ctx
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom returns the transaction carried by ctx, if any
func TxFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn returns the transaction carried by ctx or db, bound to ctx
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// CommitHooks collects work that must only happen once the outermost
// transaction committed
type CommitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks attaches a fresh hook list to ctx
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	h := &CommitHooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

// Run calls the collected hooks in registration order
func (h *CommitHooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// AfterCommit defers fn until the transaction carried by ctx commits. It is
// dropped on rollback. Without a transaction fn runs right away
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*CommitHooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}
