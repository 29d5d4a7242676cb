package cmd

import (
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent video generation jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		page, err := client.JobHistory(cmd.Context(), historyLimit, historyOffset)
		if err != nil {
			return err
		}
		if len(page.Jobs) == 0 {
			cmd.Println("No jobs found.")
			return nil
		}
		for _, job := range page.Jobs {
			line := job.ID + "  " + string(job.Status)
			if job.VideoURL != "" {
				line += "  " + job.VideoURL
			}
			cmd.Println(line)
		}
		cmd.Printf("\nShowing %d of %d jobs (offset %d)\n", len(page.Jobs), page.Total, page.Offset)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of jobs per page")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "pagination offset")

	rootCmd.AddCommand(historyCmd)
}
