// Command backup fetches every collection once and writes the JSON backup,
// the CSV export and the spreadsheet export into a directory.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"haoshi-console/internal/backend"
	"haoshi-console/internal/config"
	"haoshi-console/internal/logger"
	"haoshi-console/internal/store"
	"haoshi-console/internal/transfer"
)

func main() {
	outDir := flag.String("out", ".", "directory to write the backup files into")
	includeUsers := flag.Bool("admin", false, "include user accounts in the JSON backup")
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	timeout := flag.Duration("timeout", time.Minute, "fetch timeout")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLogger, err := logger.NewLogger(cfg.Logging.Level, "console", "haoshi-backup")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st := store.New()
	gateway := backend.NewGateway(backend.NewWebhookClient(cfg.Webhook, zapLogger), backend.NewLocalFallback(), st, zapLogger,
		backend.WithFallback(cfg.Backend.LocalFallback))

	res, err := gateway.Refresh(ctx)
	if err != nil {
		zapLogger.Fatal("Fetch failed", zap.Error(err))
	}
	if res.Simulated {
		zapLogger.Warn("Webhook unreachable, backing up demo data")
	}

	files, err := writeAll(*outDir, st, *includeUsers, time.Now().In(cfg.Location()))
	if err != nil {
		zapLogger.Fatal("Backup failed", zap.Error(err))
	}
	for _, f := range files {
		fmt.Println(f)
	}
}

// writeAll writes the three backup files and returns their paths
func writeAll(dir string, st *store.Store, includeUsers bool, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	props := st.Properties()
	comms := st.Communities()

	outputs := []struct {
		name  string
		write func(*bytes.Buffer) error
	}{
		{transfer.BackupFileName(now), func(b *bytes.Buffer) error {
			return transfer.NewBackup(props, comms, st.Users(), includeUsers, now).WriteJSON(b)
		}},
		{transfer.CSVFileName(now), func(b *bytes.Buffer) error { return transfer.WriteCSV(b, props, comms) }},
		{transfer.XLSXFileName(now), func(b *bytes.Buffer) error { return transfer.WriteXLSX(b, props, comms) }},
	}

	var written []string
	for _, o := range outputs {
		var buf bytes.Buffer
		if err := o.write(&buf); err != nil {
			return written, fmt.Errorf("%s: %w", o.name, err)
		}
		path := filepath.Join(dir, o.name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
