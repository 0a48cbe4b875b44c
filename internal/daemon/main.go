// Package daemon wires the database, the resolution engine and the web
// service together and runs the periodic maintenance tickers.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/identilink/identilink/internal/config"
	"github.com/identilink/identilink/internal/db/controller/audit"
	"github.com/identilink/identilink/internal/db/dsn"
	"github.com/identilink/identilink/internal/db/models"
	"github.com/identilink/identilink/internal/engine"
	"github.com/identilink/identilink/internal/logger"
	"github.com/identilink/identilink/internal/provider"
	"github.com/identilink/identilink/internal/provider/gworkspace"
	"github.com/identilink/identilink/internal/provider/msteams"
	"github.com/identilink/identilink/internal/provider/slack"
	"github.com/identilink/identilink/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	engine     *engine.Service
	webService *web.Service
	stop       chan struct{}
}

// Engine exposes the resolution engine, used by the sweep subcommand.
func (d *Daemon) Engine() *engine.Service {
	return d.engine
}

// Start runs the maintenance tickers and serves the web service until
// shutdown.
func (d *Daemon) Start() error {
	go d.runTickers()

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	go d.webService.WaitShutdown()

	err := d.webService.Start(addr)

	close(d.stop)

	return err
}

// runTickers drives the suggestion-expiry sweep and the audit retention
// purge on their configured intervals. A zero interval disables a ticker.
func (d *Daemon) runTickers() {
	ctx := context.Background()

	if d.cfg.Sweep.Interval > 0 {
		go func() {
			ticker := time.NewTicker(d.cfg.Sweep.Interval)
			defer ticker.Stop()

			for {
				select {
				case <-d.stop:
					return
				case <-ticker.C:
					count, err := d.engine.ExpireDueSuggestions(ctx, time.Now().UTC())
					if err != nil {
						log.Error().Err(err).Msg("suggestion sweep failed")
						continue
					}

					if count > 0 {
						log.Info().Int64("expired", count).Msg("suggestion sweep finished")
					}
				}
			}
		}()
	}

	if d.cfg.Audit.Retention > 0 {
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-d.stop:
					return
				case <-ticker.C:
					cutoff := time.Now().UTC().Add(-d.cfg.Audit.Retention)

					count, err := audit.PurgeOlderThan(d.db, cutoff)
					if err != nil {
						log.Error().Err(err).Msg("audit retention purge failed")
						continue
					}

					if count > 0 {
						log.Info().Int64("purged", count).Msg("audit retention purge finished")
					}
				}
			}
		}()
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil, nil
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.Organization{},
		&models.Member{},
		&models.ExternalIdentity{},
		&models.LinkSuggestion{},
		&models.LinkAudit{},
		&models.IdentitySettings{},
	); err != nil {
		return nil, err
	}

	seed(cfg, db)

	provider.RegisterDefaults(
		slack.New(),
		msteams.New(),
		gworkspace.New(),
	)

	eng := engine.New(db)

	return &Daemon{
		cfg:        cfg,
		db:         db,
		engine:     eng,
		webService: web.New(cfg, db, eng),
		stop:       make(chan struct{}),
	}, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	default: // mysql
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	return gorm.Open(dialector, &gorm.Config{})
}
