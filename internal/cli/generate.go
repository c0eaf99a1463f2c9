package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"travel-planner/internal/client"
	"travel-planner/internal/models"
	"travel-planner/internal/poll"
)

var (
	flagDestination string
	flagStart       string
	flagEnd         string
	flagAdults      int
	flagChildren    int
	flagStyle       string
	flagInterests   string
	flagInterval    time.Duration
	flagWait        time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Submit a trip brief and poll until the plan is ready",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := client.New(flagBaseURL, flagToken)

		brief := models.TripBrief{
			Destination: flagDestination,
			StartDate:   flagStart,
			EndDate:     flagEnd,
			Adults:      flagAdults,
			Children:    flagChildren,
			TravelStyle: flagStyle,
			Interests:   flagInterests,
		}
		jobID, estimate, err := c.Generate(cmd.Context(), brief)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job %s accepted, estimated %ds\n", jobID, estimate)

		poller := poll.Poller{
			Interval: flagInterval,
			Timeout:  flagWait,
			OnUpdate: func(st poll.Status) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %d%%\n", st.Status, st.Progress)
			},
		}
		final, err := poller.Wait(cmd.Context(), c.StatusFunc(jobID))
		if errors.Is(err, poll.ErrTimeout) {
			fmt.Fprintln(cmd.OutOrStdout(), "generation is taking longer than expected; check again with:")
			fmt.Fprintf(cmd.OutOrStdout(), "  planctl status %s\n", jobID)
			return nil
		}
		if err != nil {
			return err
		}
		printStatus(cmd, final)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Query a generation job's status once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(flagBaseURL, flagToken)
		st, err := c.JobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printStatus(cmd, st)
		return nil
	},
}

func printStatus(cmd *cobra.Command, st poll.Status) {
	switch st.Status {
	case "completed":
		planID := ""
		if st.PlanID != nil {
			planID = *st.PlanID
		}
		fmt.Fprintf(cmd.OutOrStdout(), "completed: plan %s\n", planID)
	case "failed":
		msg := ""
		if st.ErrorMessage != nil {
			msg = *st.ErrorMessage
		}
		fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", msg)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d%%\n", st.Status, st.Progress)
	}
}

func init() {
	generateCmd.Flags().StringVar(&flagDestination, "destination", "", "where to go")
	generateCmd.Flags().StringVar(&flagStart, "start", "", "start date (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&flagEnd, "end", "", "end date (YYYY-MM-DD)")
	generateCmd.Flags().IntVar(&flagAdults, "adults", 1, "number of adults")
	generateCmd.Flags().IntVar(&flagChildren, "children", 0, "number of children")
	generateCmd.Flags().StringVar(&flagStyle, "style", "", "travel style tag")
	generateCmd.Flags().StringVar(&flagInterests, "interests", "", "free-text interests")
	generateCmd.Flags().DurationVar(&flagInterval, "interval", 5*time.Second, "polling interval")
	generateCmd.Flags().DurationVar(&flagWait, "wait", 3*time.Minute, "how long to poll before giving up")
	_ = generateCmd.MarkFlagRequired("destination")
	_ = generateCmd.MarkFlagRequired("start")
	_ = generateCmd.MarkFlagRequired("end")
}
