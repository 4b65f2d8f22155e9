package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boardspec/extractor/internal/extractor"
)

var (
	batchDir   string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Extract attributes for a directory of product files",
	Long:  "Runs the extraction workflow for every .txt file in a directory. The file name, without extension, becomes the product ID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		files, err := listProductFiles(batchDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			zap.L().Info("no product files found", zap.String("dir", batchDir))
			return nil
		}
		if batchLimit > 0 && len(files) > batchLimit {
			files = files[:batchLimit]
		}

		e, err := initService(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		return processBatch(ctx, e.Service, files, cfg.Extractor.MaxConcurrentRuns)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of .txt product files (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of files to process, 0 for all")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// listProductFiles returns the .txt files in dir, sorted by name so batch
// order is stable.
func listProductFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "read batch directory")
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// processBatch runs extraction for each file concurrently. Individual
// failures are logged and counted; only a canceled context aborts the batch.
func processBatch(ctx context.Context, svc *extractor.Service, files []string, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	zap.L().Info("processing batch",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, file := range files {
		g.Go(func() error {
			raw, err := os.ReadFile(file)
			if err != nil {
				failed.Add(1)
				zap.L().Error("failed to read product file", zap.String("file", file), zap.Error(err))
				return nil
			}
			productID := productIDForFile(file)

			result, err := svc.Extract(gctx, productID, string(raw))
			if err != nil {
				failed.Add(1)
				zap.L().Error("extraction run failed", zap.String("product_id", productID), zap.Error(err))
				if gctx.Err() != nil {
					return err
				}
				return nil
			}
			if result.Error != "" {
				failed.Add(1)
				zap.L().Warn("extraction completed with error",
					zap.String("product_id", productID),
					zap.String("error", result.Error))
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	err := g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return err
}
