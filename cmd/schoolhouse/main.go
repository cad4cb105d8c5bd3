package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/schoolhouse-dev/schoolhouse/internal/config"
	"github.com/schoolhouse-dev/schoolhouse/internal/database"
	"github.com/schoolhouse-dev/schoolhouse/internal/logging"
	"github.com/schoolhouse-dev/schoolhouse/internal/maintenance"
	"github.com/schoolhouse-dev/schoolhouse/internal/store"
	"github.com/schoolhouse-dev/schoolhouse/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port         int
	bind         string
	allowSubnet  string
	dbPath       string
	logFile      string
	verbosity    int
	storeTimeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schoolhouse",
		Short: "Schoolhouse - School administration server",
		Long:  `Schoolhouse is a REST backend for school administration: students, classes, attendance, exams, fees and guardian messaging over a single embedded database.`,
		RunE:  run,
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "./schoolhouse.db", "SQLite database path (or set DB_PATH env var)")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: alongside the database)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.Flags().DurationVar(&storeTimeout, "store-timeout", store.DefaultTimeout, "Per-statement deadline on the store")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("schoolhouse %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Check for PORT env var if flag not set
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}
	// Check for DB_PATH env var if using default
	if dbPath == "./schoolhouse.db" {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			dbPath = envDB
		}
	}

	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}
	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}
	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	if logFile == "" {
		logFile = logging.FilePathForDB(dbPath)
	}
	logging.Setup(verbosity, logFile)

	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", dbPath).
		Msg("Starting Schoolhouse")

	// Open and bootstrap the store. Fatal taxonomy errors (path, connect,
	// structural bootstrap) abort startup entirely; a degraded bootstrap
	// is logged and the server runs with the health endpoint flagging it.
	st := store.New(store.Config{
		Path:            dbPath,
		CreateIfMissing: true,
		WriteAhead:      true,
		Timeout:         storeTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := st.Initialize(ctx); err != nil {
		var be *store.BootstrapError
		if errors.As(err, &be) {
			log.Fatal().Err(err).Int("statement", be.Index+1).Msg("Schema bootstrap failed")
		}
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer st.Close()

	if st.State() == store.StateDegraded {
		report := st.Report()
		log.Warn().
			Int("skipped", report.Skipped).
			Int("executed", report.Executed).
			Msg("Store is degraded-ready; some schema statements were skipped")
	}

	db := database.New(st)
	if err := db.InitializeDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default settings")
	}

	// Maintenance schedules are tunable through settings.
	loader := config.NewLoader(settingsAdapter{db})
	sched, err := maintenance.New(st,
		loader.String(ctx, "maintenance.optimize_cron", maintenance.DefaultOptimizeSpec),
		loader.String(ctx, "maintenance.vacuum_cron", maintenance.DefaultVacuumSpec))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid maintenance schedule")
	}
	sched.Start()
	defer sched.Stop()

	server := web.NewServer(db, port, bind, allowedNet)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Schoolhouse stopped")
	return nil
}

// settingsAdapter lets the config loader read the settings table.
type settingsAdapter struct {
	db *database.DB
}

func (a settingsAdapter) GetSetting(ctx context.Context, key string) (string, error) {
	return a.db.GetSetting(ctx, key)
}
