package cmd

import "github.com/spf13/cobra"

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Solve the configured scenario once",
	RunE:  runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
}
