package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"esmrebuild/config"
	"esmrebuild/elastic"
	"esmrebuild/indexer"
	"esmrebuild/runner"
	"esmrebuild/sources"
	"esmrebuild/sources/file"
	"esmrebuild/sources/mongodb"
	"esmrebuild/sources/postgres"
	"esmrebuild/store"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Version is set via ldflags during build
var Version = "dev"

// localScheme selects the on-disk index store instead of an Elasticsearch node
const localScheme = "file://"

var CLI struct {
	Run     RunCmd     `cmd:"" help:"Rebuild an index, apply mappings and push documents" default:"withargs"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type RunCmd struct {
	Rebuild  bool `short:"R" help:"Delete index and recreate"`
	Mappings bool `short:"M" help:"Add document mappings to index"`
	Push     bool `short:"P" help:"Index documents from source collections"`
	Verbose  bool `short:"v" help:"Verbose messages during source retrieval (noisy)"`
	Yes      bool `short:"y" help:"Do not ask for confirmation"`

	Node     string   `short:"n" env:"ESM_NODE" required:"" help:"Elasticsearch node hostname or IP address, or file://<dir> for a local index store"`
	Index    string   `short:"i" env:"ESM_INDEX" required:"" help:"Index name"`
	DocTypes []string `short:"d" name:"doctypes" help:"Document types (MUST match source collection names)"`
	MapPath  string   `short:"p" name:"mappath" help:"Directory path to doctype mappings"`

	Source     string `env:"ESM_SOURCE" default:"mongodb" help:"Source database type (${sources})"`
	Host       string `short:"H" env:"ESM_SOURCE_HOST" help:"Source hostname, DSN or export directory"`
	DB         string `short:"D" name:"db" env:"ESM_SOURCE_DB" help:"Source database name (schema for postgres)"`
	Size       int    `short:"s" default:"500" help:"Number of documents to fetch per iteration"`
	PrimaryKey string `name:"primary-key" help:"Primary key field (default _id, id for postgres)"`
}

func (r *RunCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var zapLogger *zap.Logger
	if cfg.Debug() {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer zapLogger.Sync()

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate run id: %w", err)
	}
	zapLogger = zapLogger.With(zap.String("run_id", runID.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := sources.NewRegistry(zapLogger)
	registry.Register(mongodb.Type, mongodb.Open)
	registry.Register(postgres.Type, postgres.Open)
	registry.Register(file.Type, file.Open)

	opts := r.options(cfg)
	if err := opts.Validate(registry.Types()); err != nil {
		return err
	}

	fmt.Println("\n[Execution Options]")
	if err := runner.RenderSummary(os.Stdout, &opts); err != nil {
		return err
	}

	if !r.Yes {
		answer, err := runner.Confirm(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		if answer == runner.AnswerNo {
			fmt.Println("\nYou have selected not to continue execution. Exiting ...")
			return nil
		}
	}

	fmt.Printf("\n[-] Starting execution in %s ...\n", cfg.ConfirmDelay)
	select {
	case <-time.After(cfg.ConfirmDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	backend, closeBackend, err := openBackend(opts.Node, cfg, zapLogger)
	if err != nil {
		return runner.Fail(runner.KindConfig, "connect", err)
	}
	defer closeBackend()

	zapLogger.Info("Starting run",
		zap.Strings("actions", opts.Actions()),
		zap.String("index", opts.Index))

	client := indexer.NewClient(backend, opts.Index, zapLogger)
	_, err = runner.New(client, registry, opts, zapLogger).Run(ctx)
	return err
}

func (r *RunCmd) options(cfg *config.Config) runner.Options {
	return runner.Options{
		Rebuild:    r.Rebuild,
		Mappings:   r.Mappings,
		Push:       r.Push,
		Verbose:    r.Verbose,
		Node:       r.Node,
		Index:      r.Index,
		DocTypes:   r.DocTypes,
		MapPath:    r.MapPath,
		Source:     r.Source,
		Host:       r.Host,
		Database:   r.DB,
		PageSize:   r.Size,
		PrimaryKey: r.PrimaryKey,
		MaxConns:   cfg.PGMaxConns,
	}
}

// openBackend picks the local store for file:// nodes and Elasticsearch otherwise
func openBackend(node string, cfg *config.Config, logger *zap.Logger) (indexer.Backend, func(), error) {
	if dir, ok := strings.CutPrefix(node, localScheme); ok {
		s, err := store.Open(dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("Failed to close index store", zap.Error(err))
			}
		}, nil
	}

	esConfig := elastic.Config{
		Node:             node,
		CompressionLevel: cfg.ESCompressionLevel,
		IncludeTypeName:  cfg.ESIncludeTypeName,
		Refresh:          cfg.ESRefresh,
	}
	if cfg.HasESCredentials() {
		esConfig.Username = cfg.ESUsername
		esConfig.Password = cfg.ESPassword
	}

	b, err := elastic.NewBackend(esConfig, logger)
	if err != nil {
		return nil, nil, err
	}
	return b, func() {}, nil
}

type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("esmrebuild %s\n", Version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("esmrebuild"),
		kong.Description("Rebuild an Elasticsearch index from MongoDB collections"),
		kong.UsageOnError(),
		kong.Vars{"sources": strings.Join([]string{mongodb.Type, postgres.Type, file.Type}, ", ")},
	)
	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
