// Command loader splits text files into chunks and uploads them to a hybridrag server.
//
// Usage:
//
//	loader --server http://localhost:8080 --chunk-size 1000 docs/*.txt
//	loader --server "$API_URL" chunks.jsonl
//
// .jsonl files are read as pre-chunked {"id","content"} lines; every other file is split
// with a recursive character splitter.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/config"
	logpkg "github.com/kailas-cloud/hybridrag/internal/logger"
	"github.com/kailas-cloud/hybridrag/internal/version"
	"github.com/kailas-cloud/hybridrag/pkg/client"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "loader:", err)
		cancel()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "loader",
		Usage:     "Chunk text files and upload them to a hybridrag server",
		ArgsUsage: "FILE...",
		Version:   version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "hybridrag server base URL",
				EnvVars: []string{"API_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Maximum characters per chunk",
				Value: 1000,
			},
			&cli.IntFlag{
				Name:  "chunk-overlap",
				Usage: "Characters shared by neighbouring chunks",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Chunks per POST /chunks request",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent upload requests",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Retries per batch on transient failures",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: 2 * time.Minute,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one input file is required")
	}
	if c.Int("chunk-overlap") >= c.Int("chunk-size") {
		return fmt.Errorf("chunk-overlap (%d) must be smaller than chunk-size (%d)",
			c.Int("chunk-overlap"), c.Int("chunk-size"))
	}

	logger, err := logpkg.NewLogger("local", c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	api, err := client.New(c.String("server"),
		client.WithTimeout(c.Duration("timeout")),
		client.WithUserAgent("hybridrag-loader/"+version.Version),
	)
	if err != nil {
		return err
	}

	splitter := newSplitter(c.Int("chunk-size"), c.Int("chunk-overlap"))
	var chunks []client.Chunk
	for _, path := range c.Args().Slice() {
		fileChunks, err := readChunks(path, splitter)
		if err != nil {
			return err
		}
		logger.Info("File chunked", zap.String("file", path), zap.Int("chunks", len(fileChunks)))
		chunks = append(chunks, fileChunks...)
	}

	up := &uploader{
		api:        api,
		batchSize:  c.Int("batch-size"),
		workers:    c.Int("workers"),
		maxRetries: c.Int("max-retries"),
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}

	logger.Info("Uploading chunks",
		zap.String("server", c.String("server")),
		zap.Int("chunks", len(chunks)),
		zap.Int("batch_size", up.batchSize),
		zap.Int("workers", up.workers),
	)

	res, err := up.Run(c.Context, chunks)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Uploaded %d/%d chunks in %d batches (%d failed, %d embedding tokens) in %s\n",
		res.Uploaded, len(chunks), res.Batches, res.FailedBatches, res.Tokens, res.Duration.Round(time.Millisecond))
	if res.FailedBatches > 0 {
		return fmt.Errorf("%d of %d batches failed", res.FailedBatches, res.Batches)
	}
	return nil
}
