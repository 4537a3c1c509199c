package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crimemap/crimemap/internal/config"
	"github.com/crimemap/crimemap/internal/server"
)

const banner = `
  ___ _ __(_)_ __ ___   ___ _ __ ___   __ _ _ __
 / __| '__| | '_ ' _ \ / _ \ '_ ' _ \ / _' | '_ \
| (__| |  | | | | | | |  __/ | | | | | (_| | |_) |
 \___|_|  |_|_| |_| |_|\___|_| |_| |_|\__,_| .__/
                                           |_|
`

func newServeCmd() *cobra.Command {
	var (
		dev     bool
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the crimemap API server",
		Long: `Start the HTTP server that exposes /codes, /neighborhoods, /incidents,
/new-incident and /remove-incident, and serves the map client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), dev, migrate)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().String("static-dir", "", "Directory holding the built map client")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Create missing tables and seed reference data on start")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.static_dir", cmd.Flags().Lookup("static-dir"))

	return cmd
}

func runServe(ctx context.Context, dev, migrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(os.Stderr, cfg.Logging, dev)

	st, registry, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			registry.CloseAll()
			return fmt.Errorf("migrate: %w", err)
		}
		if _, err := st.Seed(ctx); err != nil {
			registry.CloseAll()
			return fmt.Errorf("seed: %w", err)
		}
	}

	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout, 30*time.Second),
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
		StaticDir:       cfg.Server.StaticDir,
		Version:         versionString(),
	}

	srv := server.New(srvCfg, st, logger, server.CloserFunc(func() error {
		registry.CloseAll()
		return nil
	}))

	host := srvCfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	fmt.Printf("→ crimemap %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, srvCfg.Port)
	fmt.Printf("→ Metrics:    http://%s:%d/metrics\n", host, srvCfg.Port)
	fmt.Printf("→ Database:   %s\n", cfg.Database.Driver)
	fmt.Println()

	return srv.ListenAndServe(ctx)
}
