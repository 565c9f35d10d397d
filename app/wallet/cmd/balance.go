package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var account string

type balance struct {
	Account string  `json:"account"`
	Balance float64 `json:"balance"`
}

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of an account",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&account, "account", "a", "", "Account to query.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	if account == "" {
		log.Fatal("an account is required, use --account")
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/balances/%s", url, account))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var bal balance
	if err := json.NewDecoder(resp.Body).Decode(&bal); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %v\n", bal.Account, bal.Balance)
}
