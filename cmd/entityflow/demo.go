/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow"
	"github.com/suparena/entityflow/batch"
	"github.com/suparena/entityflow/config"
	"github.com/suparena/entityflow/metrics"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/storagemodels"
	"github.com/suparena/entityflow/testmodels"
	"github.com/suparena/entityflow/transaction"
	"golang.org/x/sync/errgroup"
)

type cmdDemo struct {
	Records int    `long:"records" default:"500" description:"Number of rating records to write"`
	System  string `long:"system" default:"elo" description:"ID of the rating system the records belong to"`
	Serve   bool   `long:"serve" description:"Keep serving metrics after the workload completes"`
}

func (cmd *cmdDemo) Execute(args []string) error {
	cfg, err := config.Load(Config.File)
	if err != nil {
		return errors.WithMessage(err, "loading config")
	}
	if err = cfg.ApplyLogging(); err != nil {
		return err
	}
	if err = metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return errors.WithMessage(err, "registering metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := entityflow.Open(ctx, cfg, []string{testmodels.Schema})
	if err != nil {
		return err
	}
	defer db.Close()
	db.Start(ctx)

	var group, groupCtx = errgroup.WithContext(ctx)
	var srv = &http.Server{Addr: cfg.Metrics.Address, Handler: promhttp.Handler()}

	group.Go(func() error {
		log.WithField("addr", cfg.Metrics.Address).Info("serving metrics")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return errors.WithMessage(err, "serving metrics")
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		var shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if !cmd.Serve {
			defer stop()
		}
		return cmd.run(groupCtx, db)
	})
	return group.Wait()
}

// run writes the workload and waits for every record to be flushed.
func (cmd *cmdDemo) run(ctx context.Context, db *entityflow.Database) error {
	players, err := entityflow.Register[*testmodels.Player](db, testmodels.PlayerAdapter{})
	if err != nil {
		return err
	}
	records, err := entityflow.Register[*testmodels.RatingRecord](db, &testmodels.RatingRecordAdapter{Players: players})
	if err != nil {
		return err
	}
	systems, err := entityflow.Register[*testmodels.RatingSystem](db, testmodels.RatingSystemAdapter{Records: records})
	if err != nil {
		return err
	}

	var changes atomic.Int64
	reg, err := entityflow.Subscribe(db, notify.ListenerFuncs{
		Model: func(storagemodels.Change) { changes.Add(1) },
		Table: func(storagemodels.EntityType, storagemodels.Action) { changes.Add(1) },
	}, testmodels.PlayerType, testmodels.RatingSystemType, testmodels.RatingRecordType)
	if err != nil {
		return err
	}
	defer reg.UnregisterAll()

	var systemSaved = make(chan error, 1)
	_, err = systems.SaveAsync(&testmodels.RatingSystem{
		ID:        cmd.System,
		Name:      cmd.System,
		CreatedAt: strfmt.DateTime(time.Now()),
	},
		transaction.WithName("save-rating-system"),
		transaction.WithPriority(transaction.PriorityHigh),
		transaction.WithSuccess(func(*transaction.Transaction) { systemSaved <- nil }),
		transaction.WithError(func(_ *transaction.Transaction, err error) { systemSaved <- err }),
	)
	if err != nil {
		return err
	}

	var submitted, saved atomic.Int64
	var flushed = make(chan struct{}, 1)
	var failed = make(chan error, 1)
	var acc = entityflow.NewAccumulator(records,
		batch.WithName("rating-records"),
		batch.WithSuccess(func(n, ok int) {
			submitted.Add(int64(n))
			saved.Add(int64(ok))
			select {
			case flushed <- struct{}{}:
			default:
			}
		}),
		batch.WithError(func(err error) {
			select {
			case failed <- err:
			default:
			}
		}),
	)
	acc.Start(ctx)
	defer acc.Quit()

	select {
	case err = <-systemSaved:
		if err != nil {
			return errors.WithMessage(err, "saving rating system")
		}
	case <-ctx.Done():
		return nil
	}

	var started = time.Now()
	for i := 0; i < cmd.Records; i++ {
		acc.Add(&testmodels.RatingRecord{
			SystemID: cmd.System,
			Score:    1000 + float64(i%800),
			Player: &testmodels.Player{
				Name:      fmt.Sprintf("player-%d", i),
				Rating:    1500,
				UpdatedAt: strfmt.DateTime(time.Now()),
			},
		})
	}
	acc.Purge()

	for submitted.Load() < int64(cmd.Records) {
		select {
		case <-flushed:
		case err = <-failed:
			return errors.WithMessage(err, "flushing rating records")
		case <-time.After(time.Second):
			acc.Purge()
		case <-ctx.Done():
			return nil
		}
	}

	log.WithFields(log.Fields{
		"records":  cmd.Records,
		"saved":    saved.Load(),
		"changes":  changes.Load(),
		"cached":   players.Cache().Len(),
		"duration": time.Since(started),
	}).Info("demo workload complete")
	return nil
}
