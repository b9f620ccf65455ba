package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/tracelearn/internal/network"
	"github.com/spf13/cobra"
)

func newNetworkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Print the network definition",
		Long: `Print the network a run would use: the configured network file, the
--network flag, or the built-in reference network.

With --yaml the definition is printed in the file format accepted by
--network, which is a convenient starting point for a custom network.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("network") {
				cfg.Network, _ = cmd.Flags().GetString("network")
			}

			net, err := loadNetwork(cfg.Network)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")
			asYAML, _ := cmd.Flags().GetBool("yaml")
			noColor, _ := cmd.Flags().GetBool("no-color")

			switch {
			case jsonOut:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"name":        net.Name,
					"species":     net.Species,
					"initial":     net.Initial,
					"target":      net.Target,
					"transitions": net.Transitions,
				})
			case asYAML:
				data, err := network.Marshal(net)
				if err != nil {
					return fmt.Errorf("encoding network: %w", err)
				}
				_, err = out.Write(data)
				return err
			default:
				net.Describe(out, useColor(cmd, noColor))
				return nil
			}
		},
	}

	cmd.Flags().String("network", "", "Network definition YAML (default: built-in reference network)")
	cmd.Flags().Bool("yaml", false, "Print the definition as YAML")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}
