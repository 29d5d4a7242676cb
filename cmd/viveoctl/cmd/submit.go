package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"viveo/internal/domain"
	"viveo/internal/session"
)

var (
	submitPrompt   string
	submitCost     int
	submitDuration int
	submitAspect   string
	submitStyle    string
	submitWatch    bool
	submitInterval time.Duration
	submitTimeout  time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a video generation job",
	Long: `Submit a video generation job. The wallet balance is checked before the
request leaves the machine; a job the balance cannot cover is rejected
locally. With --watch, the command polls the job until it completes or fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		core := session.NewCore(session.CoreOptions{
			Backend:      client,
			PollInterval: submitInterval,
			MaxJobCost:   viper.GetInt("max_job_cost"),
		})
		defer core.Close()

		ctx := cmd.Context()
		if _, err := core.Wallet.Refresh(ctx); err != nil {
			cmd.Printf("Warning: could not fetch balance, submitting without local check: %v\n", err)
		}

		jobID, err := core.Gate.Submit(ctx, session.SubmitRequest{
			Prompt:          submitPrompt,
			Cost:            submitCost,
			DurationSeconds: submitDuration,
			AspectRatio:     submitAspect,
			Style:           submitStyle,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientCredits) {
				balance, _ := core.Wallet.Cached()
				return fmt.Errorf("insufficient credits (balance: %d, estimated cost: %d)", balance, submitCost)
			}
			return err
		}

		cmd.Printf("Job submitted: %s\n", jobID)
		if !submitWatch {
			cmd.Printf("Track it with: viveoctl status %s\n", jobID)
			return nil
		}

		return watchJob(ctx, cmd, core, jobID, submitTimeout)
	},
}

// watchJob waits for the poll loop to drive the job to a terminal state,
// printing progress along the way.
func watchJob(ctx context.Context, cmd *cobra.Command, core *session.Core, jobID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	lastProgress := -1
	for {
		job, ok := core.Registry.Get(jobID)
		if ok {
			if job.Status.IsTerminal() {
				printJobResult(cmd, job)
				if job.Status == domain.JobStatusFailed {
					return fmt.Errorf("job %s failed", jobID)
				}
				return nil
			}
			if job.Progress != lastProgress {
				cmd.Printf("  %s %d%%\n", job.Status, job.Progress)
				lastProgress = job.Progress
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for job %s; it keeps running server-side", jobID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func printJobResult(cmd *cobra.Command, job domain.Job) {
	cmd.Printf("Job %s: %s\n", job.ID, job.Status)
	if job.VideoURL != "" {
		cmd.Printf("  video: %s\n", job.VideoURL)
	}
	if job.Error != "" {
		cmd.Printf("  error: %s\n", job.Error)
	}
	if job.CreditsUsed > 0 {
		cmd.Printf("  credits used: %d\n", job.CreditsUsed)
	}
}

func init() {
	submitCmd.Flags().StringVarP(&submitPrompt, "prompt", "p", "", "free-text description of the video (required)")
	submitCmd.Flags().IntVar(&submitCost, "cost", 20, "locally estimated credit cost, checked against the cached balance")
	submitCmd.Flags().IntVarP(&submitDuration, "duration", "d", 10, "video duration in seconds")
	submitCmd.Flags().StringVar(&submitAspect, "aspect-ratio", "16:9", "aspect ratio (16:9, 9:16, 1:1)")
	submitCmd.Flags().StringVar(&submitStyle, "style", "cinematic", "visual style (cinematic, anime, realistic, fantasy)")
	submitCmd.Flags().BoolVarP(&submitWatch, "watch", "w", false, "poll the job until it reaches a terminal state")
	submitCmd.Flags().DurationVar(&submitInterval, "poll-interval", 3*time.Second, "status poll interval when watching")
	submitCmd.Flags().DurationVar(&submitTimeout, "watch-timeout", 10*time.Minute, "give up watching after this long")
	_ = submitCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(submitCmd)
}
