package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/events"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/notification"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker processes",
	Long:  `Start and manage background workers such as the notification dispatcher.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification worker",
	Long:  `Start the notification worker that turns registration events into emails`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

func startNotificationWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.LoggerWrapper()

	bus := events.NewEventBus(log)
	sender := notification.NewSMTPSender(cfg.Mail)
	notification.NewService(sender, cfg.Mail, log).SubscribeAll(bus)

	log.Info("notification worker started",
		"mail_enabled", cfg.Mail.Enabled,
		"admin_recipients", len(cfg.Mail.AdminAddrs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("notification worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	log.Info("received signal, shutting down notification worker", "signal", sig)
	log.Info("notification worker shutdown complete")
}

func init() {
	workerCmd.AddCommand(notificationWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
