package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type nodeState struct {
	Height      int                `json:"height"`
	LatestHash  string             `json:"latest_hash"`
	Balances    map[string]float64 `json:"balances"`
	TotalMinted float64            `json:"total_minted"`
	Peers       []string           `json:"peers"`
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a summary of the node state",
	Run:   statsRun,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/state", url))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var st nodeState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		log.Fatal(err)
	}

	fmt.Println("height      :", st.Height)
	fmt.Println("latest hash :", st.LatestHash)
	fmt.Println("total minted:", st.TotalMinted)
	fmt.Println("peers       :", st.Peers)
	for acct, bal := range st.Balances {
		fmt.Printf("balance     : %s %v\n", acct, bal)
	}
}
