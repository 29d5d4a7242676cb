package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"viveo/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Get the status of a video generation job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		job, err := client.GetJob(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("job %s is unknown to the server", args[0])
			}
			return err
		}

		cmd.Printf("ID:       %s\n", job.ID)
		cmd.Printf("Status:   %s\n", job.Status)
		if !job.Status.IsTerminal() {
			cmd.Printf("Progress: %d%%\n", job.Progress)
		}
		if job.VideoURL != "" {
			cmd.Printf("Video:    %s\n", job.VideoURL)
		}
		if job.CreditsUsed > 0 {
			cmd.Printf("Credits:  %d\n", job.CreditsUsed)
		}
		if !job.CreatedAt.IsZero() {
			cmd.Printf("Created:  %s\n", job.CreatedAt.Local().Format(time.RFC3339))
		}
		if !job.CompletedAt.IsZero() {
			cmd.Printf("Finished: %s\n", job.CompletedAt.Local().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
