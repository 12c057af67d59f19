package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse job postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open job postings",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewBridgeClient(viper.GetString("url"), viper.GetString("token"))

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		jobs, err := client.ListJobs(limit, offset)
		if err != nil {
			cmd.Printf("Error fetching jobs: %s\n", err)
			return
		}

		if len(jobs) == 0 {
			cmd.Println("No open jobs found.")
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "JOB ID\tTITLE\tCOMPANY\tSTATUS\tAPPLICATIONS")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				j.ID,
				j.Title,
				j.CompanyName,
				j.Status,
				j.ApplicationCount,
			)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)

	jobsListCmd.Flags().IntP("limit", "l", 20, "Number of jobs to list")
	jobsListCmd.Flags().IntP("offset", "o", 0, "Offset for pagination")
}
