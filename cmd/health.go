package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/operativa/gestionale/internal/database"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, db *database.DB) error {
			status := db.HealthCheck(ctx)
			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %v", status.Err)
			}
			fmt.Printf("database healthy: latency=%s open=%d in_use=%d idle=%d\n",
				status.Latency, status.OpenConns, status.InUse, status.Idle)
			return nil
		})
	},
}
