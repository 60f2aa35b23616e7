package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/weftlabs/weft/internal/api"
	"github.com/weftlabs/weft/internal/decode"
	"github.com/weftlabs/weft/internal/layout"
	"github.com/weftlabs/weft/internal/model"
	"github.com/weftlabs/weft/internal/queue"
	"github.com/weftlabs/weft/internal/source"
	"github.com/weftlabs/weft/internal/store"
	"github.com/weftlabs/weft/internal/watch"
)

// Destination tags recognized in layout files.
const (
	destQueue      = "queue"
	destRepository = "repository"
	destBoth       = "both"
)

type runOptions struct {
	LayoutPath string
	DataPath   string
	WatchDir   string
	DryRun     bool
}

// interpreter holds the per-run state: the loaded layout and lazily opened
// collaborators. The layout is immutable and shared by reference through
// every decode.
type interpreter struct {
	cfg     appConfig
	lay     *layout.Layout
	logger  *zap.Logger
	tracker *api.Tracker
	dryRun  bool

	pub *queue.Publisher
	st  *store.Store
}

func run(cfg appConfig, logger *zap.Logger, opts runOptions) error {
	lay, err := layout.Load(opts.LayoutPath)
	if err != nil {
		return err
	}
	logger.Info("layout loaded",
		zap.String("name", lay.Name),
		zap.Int("version", lay.Version),
		zap.String("kind", string(lay.Kind)),
		zap.Int("fields", len(lay.Fields)))

	if !opts.DryRun {
		switch lay.Destination {
		case destQueue, destRepository, destBoth:
		default:
			return fmt.Errorf("invalid destination %q in layout %s", lay.Destination, lay.Name)
		}
	}

	it := &interpreter{
		cfg:     cfg,
		lay:     lay,
		logger:  logger,
		tracker: api.NewTracker(),
		dryRun:  opts.DryRun,
	}
	defer it.close()

	if cfg.APIEnabled {
		apiServer := api.NewServer(cfg.APIAddr, it.tracker, logger)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("starting diagnostics API: %w", err)
		}
		defer apiServer.Stop()
	}

	if opts.WatchDir != "" {
		return it.watchLoop(opts.WatchDir)
	}
	return it.processFile(opts.DataPath)
}

// watchLoop processes data files dropped into a directory until interrupted.
func (it *interpreter) watchLoop(dir string) error {
	w, err := watch.New(dir, it.processFile, it.logger, watch.Config{
		SettleDelay: it.cfg.SettleDelay,
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		it.logger.Info("shutting down")
		cancel()
	}()

	it.logger.Info("watching for data files", zap.String("dir", dir))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// processFile decodes one data file against the layout, prints the records,
// and hands them to the layout's destination collaborators.
func (it *interpreter) processFile(path string) error {
	src, err := source.Open(path, source.Config{MaxLineSize: it.cfg.MaxLineSize})
	if err != nil {
		return err
	}
	defer src.Close()

	res, err := decode.Decode(it.lay, src)
	if err != nil {
		return err
	}
	it.tracker.AddDecode(res.Stats)

	for _, fe := range res.FieldErrors {
		it.logger.Warn("field skipped", zap.String("file", path), zap.Error(fe))
	}
	if res.Stats.Fallbacks > 0 {
		it.logger.Debug("coercion fallbacks applied",
			zap.String("file", path),
			zap.Int("count", res.Stats.Fallbacks),
			zap.Any("by_field", res.Stats.FallbacksByField))
	}

	pretty, err := model.MarshalPretty(res.Records)
	if err != nil {
		return fmt.Errorf("serializing records: %w", err)
	}
	fmt.Printf("Processed records: %s\n", pretty)

	if it.dryRun {
		return nil
	}
	return it.dispatch(path, res.Records)
}

// dispatch routes the decoded records per the layout's destination tag.
// For "both", queue and store deliveries run concurrently; each collaborator
// still receives records in input order.
func (it *interpreter) dispatch(path string, records []*model.Record) error {
	switch it.lay.Destination {
	case destQueue:
		sent, err := it.publish(records)
		it.tracker.AddDelivery(sent, 0)
		return err

	case destRepository:
		stored, err := it.storeRecords(path, records)
		it.tracker.AddDelivery(0, stored)
		return err

	case destBoth:
		var sent, stored int
		var g errgroup.Group
		g.Go(func() error {
			var err error
			sent, err = it.publish(records)
			return err
		})
		g.Go(func() error {
			var err error
			stored, err = it.storeRecords(path, records)
			return err
		})
		err := g.Wait()
		it.tracker.AddDelivery(sent, stored)
		return err

	default:
		return fmt.Errorf("invalid destination %q in layout %s", it.lay.Destination, it.lay.Name)
	}
}

func (it *interpreter) publish(records []*model.Record) (int, error) {
	if it.pub == nil {
		pub, err := queue.Connect(it.cfg.NATSURL, it.logger)
		if err != nil {
			return 0, err
		}
		it.pub = pub
	}
	sent, err := it.pub.PublishAll(it.lay.StorageName, records)
	if err == nil {
		it.logger.Info("records published",
			zap.String("subject", it.lay.StorageName),
			zap.Int("count", sent))
	}
	return sent, err
}

func (it *interpreter) storeRecords(path string, records []*model.Record) (int, error) {
	if it.st == nil {
		st, err := store.Open(it.cfg.DBPath, it.logger, it.cfg.QueryTimeout)
		if err != nil {
			return 0, err
		}
		it.st = st
	}
	stored, err := it.st.InsertBatch(it.lay.StorageName, it.lay.Name, it.lay.Version, path, records)
	if err == nil {
		it.logger.Info("records stored",
			zap.String("table", it.lay.StorageName),
			zap.Int("count", stored))
	}
	return stored, err
}

func (it *interpreter) close() {
	if it.pub != nil {
		it.pub.Close()
	}
	if it.st != nil {
		if err := it.st.Close(); err != nil {
			it.logger.Warn("closing store", zap.Error(err))
		}
	}
}
