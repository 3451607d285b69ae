package main

import (
	"context"
	"net/http"

	accountGorm "github.com/RagOfJoes/bloom/account/repository/gorm"
	accountService "github.com/RagOfJoes/bloom/account/service"
	accountTransport "github.com/RagOfJoes/bloom/account/transport"
	addressGorm "github.com/RagOfJoes/bloom/address/repository/gorm"
	addressService "github.com/RagOfJoes/bloom/address/service"
	addressTransport "github.com/RagOfJoes/bloom/address/transport"
	attachmentGorm "github.com/RagOfJoes/bloom/attachment/repository/gorm"
	attachmentService "github.com/RagOfJoes/bloom/attachment/service"
	attachmentTransport "github.com/RagOfJoes/bloom/attachment/transport"
	auditGorm "github.com/RagOfJoes/bloom/audit/repository/gorm"
	auditService "github.com/RagOfJoes/bloom/audit/service"
	auditTransport "github.com/RagOfJoes/bloom/audit/transport"
	"github.com/RagOfJoes/bloom/cache"
	cartGorm "github.com/RagOfJoes/bloom/cart/repository/gorm"
	cartService "github.com/RagOfJoes/bloom/cart/service"
	cartTransport "github.com/RagOfJoes/bloom/cart/transport"
	catalogGorm "github.com/RagOfJoes/bloom/catalog/repository/gorm"
	catalogService "github.com/RagOfJoes/bloom/catalog/service"
	catalogTransport "github.com/RagOfJoes/bloom/catalog/transport"
	"github.com/RagOfJoes/bloom/email"
	recoveryService "github.com/RagOfJoes/bloom/flow/recovery/service"
	recoveryTransport "github.com/RagOfJoes/bloom/flow/recovery/transport"
	verificationService "github.com/RagOfJoes/bloom/flow/verification/service"
	verificationTransport "github.com/RagOfJoes/bloom/flow/verification/transport"
	"github.com/RagOfJoes/bloom/internal/config"
	inventoryGorm "github.com/RagOfJoes/bloom/inventory/repository/gorm"
	inventoryService "github.com/RagOfJoes/bloom/inventory/service"
	inventoryTransport "github.com/RagOfJoes/bloom/inventory/transport"
	"github.com/RagOfJoes/bloom/jobs"
	"github.com/RagOfJoes/bloom/jobs/tasks"
	kycGorm "github.com/RagOfJoes/bloom/kyc/repository/gorm"
	kycService "github.com/RagOfJoes/bloom/kyc/service"
	kycTransport "github.com/RagOfJoes/bloom/kyc/transport"
	localeGorm "github.com/RagOfJoes/bloom/locale/repository/gorm"
	localeService "github.com/RagOfJoes/bloom/locale/service"
	localeTransport "github.com/RagOfJoes/bloom/locale/transport"
	notificationGorm "github.com/RagOfJoes/bloom/notification/repository/gorm"
	notificationService "github.com/RagOfJoes/bloom/notification/service"
	notificationTransport "github.com/RagOfJoes/bloom/notification/transport"
	orderGorm "github.com/RagOfJoes/bloom/order/repository/gorm"
	orderService "github.com/RagOfJoes/bloom/order/service"
	orderTransport "github.com/RagOfJoes/bloom/order/transport"
	permissionGorm "github.com/RagOfJoes/bloom/permission/repository/gorm"
	permissionService "github.com/RagOfJoes/bloom/permission/service"
	permissionTransport "github.com/RagOfJoes/bloom/permission/transport"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/RagOfJoes/bloom/record"
	resaleGorm "github.com/RagOfJoes/bloom/resale/repository/gorm"
	resaleService "github.com/RagOfJoes/bloom/resale/service"
	resaleTransport "github.com/RagOfJoes/bloom/resale/transport"
	reviewGorm "github.com/RagOfJoes/bloom/review/repository/gorm"
	reviewService "github.com/RagOfJoes/bloom/review/service"
	reviewTransport "github.com/RagOfJoes/bloom/review/transport"
	"github.com/RagOfJoes/bloom/session"
	"github.com/RagOfJoes/bloom/storage"
	tokenGorm "github.com/RagOfJoes/bloom/token/repository/gorm"
	tokenService "github.com/RagOfJoes/bloom/token/service"
	tokenTransport "github.com/RagOfJoes/bloom/token/transport"
	"github.com/RagOfJoes/bloom/transport"
	wishlistGorm "github.com/RagOfJoes/bloom/wishlist/repository/gorm"
	wishlistService "github.com/RagOfJoes/bloom/wishlist/service"
	wishlistTransport "github.com/RagOfJoes/bloom/wishlist/transport"
	"github.com/gofrs/uuid/v5"
	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// app holds everything a command needs once the configuration is loaded
type app struct {
	cfg   config.Configuration
	log   zerolog.Logger
	db    *gorm.DB
	pool  *redis.Pool
	queue jobs.Queue

	runner  *jobs.Runner
	handler http.Handler
}

// lookup adapts a typed getter to a record.Lookup
func lookup[E any](get func(ctx context.Context, id uuid.UUID) (*E, error)) record.Lookup {
	return func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := get(ctx, id)
		if err != nil {
			return nil, err
		}
		return found, nil
	}
}

func newQueue(cfg config.Configuration, log zerolog.Logger) (jobs.Queue, error) {
	if cfg.Queue.Driver == "memory" {
		return jobs.NewMemory(256), nil
	}
	return jobs.NewAMQP(cfg.Queue, log)
}

func newMailer(cfg config.Configuration, log zerolog.Logger) email.Mailer {
	if cfg.SendGrid.APIKey == "" {
		log.Warn().Msg("SendGrid api key missing, emails will only be logged")
		return email.NewLog(log)
	}
	return email.NewSendGrid(cfg, log)
}

// build wires repositories, services and routes in that order
func build(cfg config.Configuration, log zerolog.Logger) (*app, error) {
	db, err := persistence.NewGorm(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	queue, err := newQueue(cfg, log)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewLocal(cfg.Storage, nil)
	if err != nil {
		return nil, err
	}

	// Redis backs the cache and the sessions when configured
	var pool *redis.Pool
	lookups := cache.NewMemory()
	sm := session.NewManager(cfg, nil)
	if cfg.Redis.Address != "" {
		pool = cache.NewPool(cfg.Redis)
		lookups = cache.NewRedis(pool, cfg.Name+":cache:")
		sm = session.NewManager(cfg, session.NewRedisStore(pool))
	}

	tx := persistence.NewTransactor(db)
	registry := record.NewRegistry()
	emails := tasks.NewEmails(queue, cfg.Queue, log)

	// Setup repositories
	accountRepository := accountGorm.NewGormAccountRepository(db)
	localeRepository := localeGorm.NewGormLocaleRepository(db)
	addressRepository := addressGorm.NewGormAddressRepository(db)
	catalogRepository := catalogGorm.NewGormCatalogRepository(db)
	inventoryRepository := inventoryGorm.NewGormInventoryRepository(db)
	cartRepository := cartGorm.NewGormCartRepository(db)
	wishlistRepository := wishlistGorm.NewGormWishlistRepository(db)
	attachmentRepository := attachmentGorm.NewGormAttachmentRepository(db)
	auditRepository := auditGorm.NewGormAuditRepository(db)
	tokenRepository := tokenGorm.NewGormTokenRepository(db)
	notificationRepository := notificationGorm.NewGormNotificationRepository(db)
	reviewRepository := reviewGorm.NewGormReviewRepository(db)
	kycRepository := kycGorm.NewGormKYCRepository(db)
	orderRepository := orderGorm.NewGormOrderRepository(db)
	permissionRepository := permissionGorm.NewGormPermissionRepository(db)
	resaleRepository := resaleGorm.NewGormResaleRepository(db)

	// Setup services
	accountService := accountService.NewAccountService(cfg.Credential, tx, accountRepository)
	localeService := localeService.NewLocaleService(cfg.Redis.CacheTTL, lookups, log, localeRepository)
	addressService := addressService.NewAddressService(tx, registry, addressRepository)
	catalogService := catalogService.NewCatalogService(tx, registry, catalogRepository)
	inventoryService := inventoryService.NewInventoryService(tx, log, registry, inventoryRepository)
	cartService := cartService.NewCartService(tx, registry, inventoryService, cartRepository)
	wishlistService := wishlistService.NewWishlistService(tx, registry, wishlistRepository)
	attachmentService := attachmentService.NewAttachmentService(cfg.Storage, tx, log, store, registry, attachmentRepository)
	auditService := auditService.NewAuditService(auditRepository)
	tokenService := tokenService.NewTokenService(log, tokenRepository)
	notificationService := notificationService.NewNotificationService(tx, accountService, emails, notificationRepository)
	reviewService := reviewService.NewReviewService(tx, registry, reviewRepository)
	kycService := kycService.NewKYCService(tx, registry, notificationService, kycRepository)
	orderService := orderService.NewOrderService(tx, log, accountService, cartService, catalogService, inventoryService, emails, orderRepository)
	permissionService := permissionService.NewPermissionService(tx, log, accountService, permissionRepository)
	resaleService := resaleService.NewResaleService(tx, log, registry, catalogService, resaleRepository)
	verificationService := verificationService.NewVerificationService(cfg, tx, accountService, tokenService, emails)
	recoveryService := recoveryService.NewRecoveryService(cfg, tx, log, accountService, tokenService, emails)

	// Polymorphic targets resolve through the services that own them
	registry.Register(record.KindAccount, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := accountService.Find(ctx, id.String())
		if err != nil {
			return nil, err
		}
		return found, nil
	})
	registry.Register(record.KindAccountTypeInfo, lookup(accountService.GetInfo))
	registry.Register(record.KindCategory, lookup(catalogService.GetCategory))
	registry.Register(record.KindProduct, lookup(catalogService.GetProduct))
	registry.Register(record.KindProductItem, lookup(catalogService.GetProductItem))
	registry.Register(record.KindKYCDocument, lookup(kycRepository.GetDocument))
	registry.Register(record.KindOrder, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := orderService.Get(ctx, id.String())
		if err != nil {
			return nil, err
		}
		return found, nil
	})
	registry.Register(record.KindAttachment, func(ctx context.Context, id uuid.UUID) (interface{}, error) {
		found, err := attachmentService.Get(ctx, id.String())
		if err != nil {
			return nil, err
		}
		return found, nil
	})

	// Background jobs
	runner := jobs.NewRunner(log)
	tasks.Register(cfg, runner, tasks.Dependencies{
		Mailer:      newMailer(cfg, log),
		Attachments: attachmentService,
		Tokens:      tokenService,
	}, log)

	// Setup HTTP Server
	engine := transport.NewHttp(cfg)
	router := transport.Group(cfg, engine)
	transport.Attach(cfg, db, log, router, session.ActorMiddleware(sm))

	// Attach routes
	accountTransport.NewAccountHttp(accountService, sm, router)
	localeTransport.NewLocaleHttp(localeService, router)
	addressTransport.NewAddressHttp(addressService, router)
	catalogTransport.NewCatalogHttp(catalogService, router)
	inventoryTransport.NewInventoryHttp(inventoryService, router)
	cartTransport.NewCartHttp(cartService, sm, router)
	wishlistTransport.NewWishlistHttp(wishlistService, router)
	attachmentTransport.NewAttachmentHttp(attachmentService, store, router)
	auditTransport.NewAuditHttp(auditService, router)
	tokenTransport.NewTokenHttp(tokenService, router)
	notificationTransport.NewNotificationHttp(notificationService, router)
	reviewTransport.NewReviewHttp(reviewService, router)
	kycTransport.NewKYCHttp(kycService, router)
	orderTransport.NewOrderHttp(orderService, router)
	permissionTransport.NewPermissionHttp(permissionService, router)
	resaleTransport.NewResaleHttp(resaleService, router)
	verificationTransport.NewVerificationHttp(cfg, verificationService, router)
	recoveryTransport.NewRecoveryHttp(cfg, recoveryService, router)

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		pool:    pool,
		queue:   queue,
		runner:  runner,
		handler: sm.LoadAndSave(engine),
	}, nil
}

// worker consumes both queues with the configured concurrency
func (a *app) worker() *jobs.Worker {
	return jobs.NewWorker(a.queue, a.runner, a.cfg.Jobs.Concurrency, a.log, a.cfg.Queue.Default, a.cfg.Queue.Recurring)
}

func (a *app) scheduler() *jobs.Scheduler {
	return jobs.NewScheduler(a.queue, a.log, tasks.Schedules(a.cfg)...)
}

// Close releases the connections held by a
func (a *app) Close() {
	if err := a.queue.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close queue")
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.log.Error().Err(err).Msg("Failed to close redis pool")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
