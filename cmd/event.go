package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/PacificEMIS/pacific-emis-teacher-registration/internal/core/events"
	"github.com/PacificEMIS/pacific-emis-teacher-registration/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Publish registration lifecycle events to the in-process bus for debugging handlers such as reviewer and applicant notifications`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a synthetic event",
	Long: `Publish a synthetic event of the given type, e.g. registration.submitted,
registration.approved or registration.rejected, and log what a subscriber receives`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishSyntheticEvent(args[0])
	},
}

var eventRegistrationID int64

func publishSyntheticEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	syntheticEvent := events.BaseEvent{
		ID:        fmt.Sprintf("cli-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"registration_id": eventRegistrationID,
			"source":          "cli-command",
		},
	}

	logger.Info("publishing event", "event_type", eventType, "event_id", syntheticEvent.ID)

	ctx := context.Background()
	if err := eventBus.Publish(ctx, syntheticEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("event published successfully")
}

func init() {

	publishEventCmd.Flags().Int64Var(&eventRegistrationID, "registration-id", 0, "Registration id carried in the event payload")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
