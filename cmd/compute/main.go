// Command compute runs a Hummock compute node: the table/object-store read
// path, the exchange streaming endpoint, and one BarrierWorker per
// stream-processing worker. The RPC transport that would drive these from
// the network (gRPC send_barrier, exchange stream requests) is a
// collaborator concern out of this repository's core scope; this binary
// wires up the local collaborators those calls would dispatch into.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/erigontech/hummock/barrier/exchange"
	"github.com/erigontech/hummock/barrier/worker"
	"github.com/erigontech/hummock/hummock/objstore"
	"github.com/erigontech/hummock/hummock/table"
	"github.com/erigontech/hummock/internal/config"
	"github.com/erigontech/hummock/internal/telemetry"
)

var cli struct {
	Config string `help:"Path to a TOML config file overlaying defaults." type:"existingfile" optional:""`
}

// node bundles the collaborators a real send_barrier/exchange RPC handler
// would dispatch into; an eventual gRPC server is constructed around
// these, not the other way around.
type node struct {
	logger   *zap.Logger
	tables   *table.Cache
	barrier  *worker.Worker
	exchange *exchange.Endpoint
}

func newNode(cfg config.Compute, logger *zap.Logger) (*node, error) {
	if err := os.MkdirAll(cfg.ObjectStore.BaseDir, 0o755); err != nil {
		return nil, err
	}
	store := objstore.NewInstrumented(objstore.NewLocal(cfg.ObjectStore.BaseDir), nil)

	return &node{
		logger:   logger,
		tables:   table.NewCache(store),
		barrier:  worker.New(logger),
		exchange: exchange.NewEndpoint(cfg.Exchange.ChannelCapacity, cfg.Exchange.RateLimitPerSec, logger),
	}, nil
}

func main() {
	kong.Parse(&cli, kong.Description("Hummock compute node."))

	cfg, err := config.LoadCompute(cli.Config)
	if err != nil {
		panic(err)
	}

	logger, err := telemetry.NewLogger(telemetry.Config{
		Level:     cfg.Telemetry.Level,
		Format:    cfg.Telemetry.Format,
		Component: "compute",
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	n, err := newNode(cfg, logger)
	if err != nil {
		logger.Fatal("initialize node", zap.Error(err))
	}

	logger.Info("compute node starting",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("object_store_base_dir", cfg.ObjectStore.BaseDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("compute node ready")
	<-ctx.Done()

	fields := []zap.Field{zap.Int("open_exchange_streams", n.exchange.StreamCount())}
	if epoch, ok := n.barrier.LastEpoch(); ok {
		fields = append(fields, zap.Uint64("last_collected_epoch", epoch))
	}
	logger.Info("compute node shutting down", fields...)
}
