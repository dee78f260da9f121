package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ndncomm/ndn-go/tools"
)

func main() {
	root := &cobra.Command{
		Use:           "ndncli",
		Short:         "NDN client tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddGroup(&cobra.Group{ID: "tools", Title: "Client Tools"})
	root.AddCommand(
		tools.CmdCatChunks,
		tools.CmdBench,
		tools.CmdPingClient,
		tools.CmdPingServer,
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
