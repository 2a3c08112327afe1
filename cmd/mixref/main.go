package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"mixref/internal/config"
	"mixref/internal/datastore"
	"mixref/internal/logger"
	"mixref/internal/scanner"
)

const version = "1.0.0"

type CLI struct {
	Config  string     `short:"c" help:"Path to the YAML/JSON configuration file. Searches default locations when unset."`
	Scan    ScanCmd    `cmd:"" help:"Scan archives for annotated classes and write the target manifest"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type ScanCmd struct {
	Output   string   `short:"o" help:"Manifest output path (overrides the configured path)"`
	Archives []string `arg:"" name:"archive" help:"Archives to scan, in order"`
}

type VersionCmd struct{}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	switch ctx.Command() {
	case "scan <archive>":
		if err := runScan(cli.Config, cli.Scan); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("mixref version %s\n", version)
	}
}

func runScan(configPath string, cmd ScanCmd) error {
	gCfg, err := config.LoadGlobalConfig(configPath)
	if err != nil {
		return err
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		return err
	}

	manifestPath := gCfg.StorageConfig.ManifestPath
	if cmd.Output != "" {
		manifestPath = cmd.Output
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scan, err := scanner.NewScanner(gCfg, zLogger)
	if err != nil {
		return err
	}

	if gCfg.CacheConfig.Enabled {
		cache, err := datastore.NewScanCache(gCfg.CacheConfig.SQLiteDBPath, zLogger)
		if err != nil {
			// The cache is an optimization; a broken cache must not block the scan.
			zLogger.Warn().Err(err).Msg("Scan cache unavailable, scanning without it")
		} else {
			defer cache.Close()
			scan.WithCache(cache)
		}
	}

	manifest, err := datastore.NewManifestWriter(manifestPath, zLogger)
	if err != nil {
		return err
	}

	summary, scanErr := scan.ScanArchives(runCtx, cmd.Archives, manifest.Writer())
	if closeErr := manifest.Close(); closeErr != nil && scanErr == nil {
		scanErr = closeErr
	}
	if scanErr != nil {
		return scanErr
	}

	zLogger.Info().
		Str("manifest", manifestPath).
		Int("records", summary.RecordsWritten).
		Msg("Manifest ready")
	return nil
}
