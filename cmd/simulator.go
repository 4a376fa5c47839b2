package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envdash.dev/envdash/internal/simulator"
	"envdash.dev/envdash/pkg/metrics"
)

var simulatorCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Run the mock sensor API",
	Long: `Run a mock sensor API server that:
- Serves GET /devices, /data/latest/{id} and /data/range
- Generates synthetic readings for a simulated device fleet
- Optionally keeps some devices silent to exercise offline display`,
	RunE: runSimulator,
}

func init() {
	rootCmd.AddCommand(simulatorCmd)

	// Simulator-specific flags
	simulatorCmd.Flags().Int("http-port", 9090, "HTTP server port")
	simulatorCmd.Flags().String("token", "", "Bearer token to require (empty accepts any request)")
	simulatorCmd.Flags().Int("devices", 3, "Number of simulated devices")
	simulatorCmd.Flags().Int("silent", 0, "Number of devices that never report")
	simulatorCmd.Flags().Duration("interval", 2*time.Second, "Reading emission interval")
	simulatorCmd.Flags().Duration("backfill", time.Hour, "History to seed at startup")

	// Bind flags to viper
	_ = viper.BindPFlag("simulator.http.port", simulatorCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("simulator.token", simulatorCmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("simulator.devices", simulatorCmd.Flags().Lookup("devices"))
	_ = viper.BindPFlag("simulator.silent", simulatorCmd.Flags().Lookup("silent"))
	_ = viper.BindPFlag("simulator.interval", simulatorCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("simulator.backfill", simulatorCmd.Flags().Lookup("backfill"))
}

func runSimulator(_ *cobra.Command, _ []string) error {
	logger := GetLogger("simulator")
	logger.Info("starting simulator service")

	config := &simulator.ServerConfig{
		Logger:      logger,
		HTTPPort:    viper.GetInt("simulator.http.port"),
		Token:       viper.GetString("simulator.token"),
		DeviceCount: viper.GetInt("simulator.devices"),
		SilentCount: viper.GetInt("simulator.silent"),
		Interval:    viper.GetDuration("simulator.interval"),
		Metrics:     metrics.NewSimulatorMetrics("envdash_simulator"),
	}

	server, err := simulator.NewServer(config)
	if err != nil {
		logger.Error("failed to create simulator server", "error", err)
		return err
	}

	if backfill := viper.GetDuration("simulator.backfill"); backfill > 0 {
		server.Backfill(time.Now(), backfill)
	}

	logger.Info("simulator server configuration",
		"http_port", config.HTTPPort,
		"devices", config.DeviceCount,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("simulator server error", "error", err)
		return err
	}

	logger.Info("simulator server stopped")
	return nil
}
