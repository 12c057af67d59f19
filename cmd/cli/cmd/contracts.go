package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"talentbridge/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "Inspect contracts and their payment state",
	Long:  `List and inspect contracts, including platform-fee payment and refund details.`,
}

var contractsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contracts",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewBridgeClient(viper.GetString("url"), viper.GetString("token"))

		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		contracts, err := client.ListContracts(all, limit, offset)
		if err != nil {
			cmd.Printf("Error fetching contracts: %s\n", err)
			return
		}

		if len(contracts) == 0 {
			cmd.Println("No contracts found.")
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CONTRACT ID\tSTATUS\tAMOUNT\tFEE\tPAID AT\tJOB")
		for _, c := range contracts {
			paidAt := ""
			if c.PaidAt != nil {
				paidAt = c.PaidAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
				c.ID,
				c.Status,
				c.ContractAmount,
				c.FeeAmount,
				paidAt,
				c.JobTitle,
			)
		}
		w.Flush()
	},
}

var contractsGetCmd = &cobra.Command{
	Use:   "get [contract_id]",
	Short: "Get details of a single contract",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewBridgeClient(viper.GetString("url"), viper.GetString("token"))

		contract, err := client.GetContract(args[0])
		if err != nil {
			cmd.Printf("Error fetching contract: %s\n", err)
			return
		}

		printContract(cmd, contract)
	},
}

func printContract(cmd *cobra.Command, c *api.ContractResponse) {
	cmd.Printf("%s %sContract Details%s\n", contractStatusIcon(c.Status), colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s            %s\n", colorDim, colorReset, c.ID)
	cmd.Printf("%sStatus:%s        %s\n", colorDim, colorReset, colorizeContractStatus(c.Status))
	cmd.Printf("%sJob:%s           %s\n", colorDim, colorReset, c.JobTitle)
	cmd.Printf("%sAmount:%s        %d\n", colorDim, colorReset, c.ContractAmount)
	cmd.Printf("%sFee:%s           %d (%d%%)\n", colorDim, colorReset, c.FeeAmount, c.FeePercentage)
	cmd.Printf("%sApprovals:%s     engineer=%t company=%t\n", colorDim, colorReset, c.ApprovedByEngineer, c.ApprovedByCompany)

	if c.PaymentID != "" {
		cmd.Printf("%sPayment ID:%s    %s\n", colorDim, colorReset, c.PaymentID)
	}
	if c.PaidAt != nil {
		cmd.Printf("%sPaid:%s          %s\n", colorDim, colorReset, c.PaidAt.Format("Mon, 02 Jan 2006 15:04:05 MST"))
	}
	if c.RefundID != "" {
		cmd.Printf("%sRefund ID:%s     %s\n", colorDim, colorReset, c.RefundID)
	}
	if c.RefundReason != "" {
		cmd.Printf("%sRefund Reason:%s %s\n", colorDim, colorReset, c.RefundReason)
	}
	if c.RefundedAt != nil {
		cmd.Printf("%sRefunded:%s      %s\n", colorDim, colorReset, c.RefundedAt.Format("Mon, 02 Jan 2006 15:04:05 MST"))
	}

	cmd.Printf("%sCreated:%s       %s\n", colorDim, colorReset, c.CreatedAt.Format(time.RFC3339))
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func contractStatusIcon(status string) string {
	switch status {
	case "paid":
		return colorGreen + "✓" + colorReset
	case "refunded":
		return colorRed + "↩" + colorReset
	case "pending_payment":
		return colorYellow + "⏳" + colorReset
	case "pending_engineer", "pending_company":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeContractStatus(status string) string {
	icon := contractStatusIcon(status)
	switch status {
	case "paid":
		return icon + " " + colorGreen + status + colorReset
	case "refunded":
		return icon + " " + colorRed + status + colorReset
	case "pending_payment":
		return icon + " " + colorYellow + status + colorReset
	case "pending_engineer", "pending_company":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func init() {
	rootCmd.AddCommand(contractsCmd)
	contractsCmd.AddCommand(contractsListCmd)
	contractsCmd.AddCommand(contractsGetCmd)

	contractsListCmd.Flags().Bool("all", false, "List every contract on the platform (admin only)")
	contractsListCmd.Flags().IntP("limit", "l", 20, "Number of contracts to list")
	contractsListCmd.Flags().IntP("offset", "o", 0, "Offset for pagination")
}
