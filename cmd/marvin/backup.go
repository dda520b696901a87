package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	goarchive "github.com/moby/go-archive"

	"github.com/nlamprou/marvin/internal/config"
)

// runBackup archives the data directory (sqlite store and NATS state)
// into a zstd-compressed tarball.
func runBackup(args []string) error {
	var outputPath, dataDir string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -f")
			}
			i++
			outputPath = args[i]
		case "-d":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -d")
			}
			i++
			dataDir = args[i]
		}
	}

	if outputPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: marvin backup -f <output.tar.zst> [-d <data-dir>]\n")
		return fmt.Errorf("missing -f flag")
	}
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	if _, err := os.Stat(dataDir); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	if err := archiveDir(dataDir, outputPath); err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Backup complete: %s (%d bytes)\n", outputPath, info.Size())
	return nil
}

// runRestore unpacks a backup archive into the data directory.
func runRestore(args []string) error {
	var inputPath, dataDir string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -f")
			}
			i++
			inputPath = args[i]
		case "-d":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -d")
			}
			i++
			dataDir = args[i]
		}
	}

	if inputPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: marvin restore -f <backup.tar.zst> [-d <data-dir>]\n")
		return fmt.Errorf("missing -f flag")
	}
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	if err := extractArchive(inputPath, dataDir); err != nil {
		return err
	}

	fmt.Printf("Restore complete: %s\n", dataDir)
	return nil
}

func archiveDir(dir, outputPath string) error {
	tarStream, err := goarchive.TarWithOptions(dir, &goarchive.TarOptions{})
	if err != nil {
		return fmt.Errorf("create tar stream: %w", err)
	}
	defer tarStream.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}

	if _, err := io.Copy(zw, tarStream); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd: %w", err)
	}
	return f.Close()
}

func extractArchive(inputPath, dir string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := goarchive.Untar(zr, dir, &goarchive.TarOptions{}); err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}
	return nil
}

func defaultDataDir() string {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("config load failed, using default data dir", "error", err)
		return "data"
	}
	return filepath.Dir(cfg.Store.Path)
}
