package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envdash.dev/envdash/internal/dashboard"
	"envdash.dev/envdash/pkg/metrics"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the dashboard server",
	Long: `Run the dashboard web server that:
- Serves the live device view with metric cards and online status
- Serves the analytics view with historical charts and CSV export
- Fetches all data from the remote sensor HTTP API
- Uses htmx for periodic fragment updates`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	// Dashboard-specific flags
	dashboardCmd.Flags().Int("http-port", 8080, "HTTP server port")
	dashboardCmd.Flags().String("api-url", "http://localhost:9090", "Sensor API base URL")
	dashboardCmd.Flags().Duration("api-timeout", 0, "Sensor API request timeout (0 uses the client default)")
	dashboardCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")

	// Bind flags to viper
	_ = viper.BindPFlag("dashboard.http.port", dashboardCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("dashboard.api.url", dashboardCmd.Flags().Lookup("api-url"))
	_ = viper.BindPFlag("dashboard.api.timeout", dashboardCmd.Flags().Lookup("api-timeout"))
	_ = viper.BindPFlag("dashboard.metrics.enabled", dashboardCmd.Flags().Lookup("metrics"))
}

func runDashboard(_ *cobra.Command, _ []string) error {
	logger := GetLogger("dashboard")
	logger.Info("starting dashboard service")

	config := &dashboard.ServerConfig{
		Logger:     logger,
		HTTPPort:   viper.GetInt("dashboard.http.port"),
		APIBaseURL: viper.GetString("dashboard.api.url"),
		APITimeout: viper.GetDuration("dashboard.api.timeout"),
	}
	if viper.GetBool("dashboard.metrics.enabled") {
		config.Metrics = metrics.NewDashboardMetrics("envdash_dashboard")
	}

	server, err := dashboard.NewServer(config)
	if err != nil {
		logger.Error("failed to create dashboard server", "error", err)
		return err
	}

	logger.Info("dashboard server configuration",
		"http_port", config.HTTPPort,
		"api_url", config.APIBaseURL,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("dashboard server error", "error", err)
		return err
	}

	logger.Info("dashboard server stopped")
	return nil
}
