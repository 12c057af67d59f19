package cmd

import (
	"talentbridge/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var refundCmd = &cobra.Command{
	Use:   "refund [contract_id]",
	Short: "Refund the platform fee for a paid contract",
	Long: `Refund the platform fee for a paid contract. Admin only.

The payment id must match the charge recorded on the contract; this guards
against refunding the wrong contract from a stale terminal.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contractID := args[0]
		client := NewBridgeClient(viper.GetString("url"), viper.GetString("token"))

		paymentID, _ := cmd.Flags().GetString("payment-id")
		reason, _ := cmd.Flags().GetString("reason")

		if paymentID == "" || reason == "" {
			cmd.Println("--payment-id and --reason are required")
			return
		}

		resp, err := client.RefundContract(contractID, api.ProcessRefundRequest{
			PaymentID: paymentID,
			Reason:    reason,
		})
		if err != nil {
			cmd.Printf("Error processing refund: %s\n", err)
			return
		}

		if resp.Reconciled {
			cmd.Printf("↩ Contract %s reconciled: the charge was already refunded at the gateway.\n", contractID)
		} else {
			cmd.Printf("↩ Contract %s refunded successfully.\n", contractID)
		}
		cmd.Printf("   Refund ID: %s\n", resp.Contract.RefundID)
	},
}

func init() {
	rootCmd.AddCommand(refundCmd)

	refundCmd.Flags().String("payment-id", "", "Charge id recorded on the contract")
	refundCmd.Flags().StringP("reason", "r", "", "Reason for the refund")
}
