package cli

import (
	"fmt"
	"text/tabwriter"

	"buzz-quiz-service/internal/config"
	"buzz-quiz-service/internal/infra/buzzhid"
	"github.com/spf13/cobra"
)

// NewDevicesCmd lists attached HID devices to help pick vendor and product ids.
func NewDevicesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List HID devices and mark Buzz dongles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			connector := buzzhid.NewConnector(buzzhid.Config{
				VendorID:  cfg.Device.VendorID,
				ProductID: cfg.Device.ProductID,
			})
			devices, err := connector.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BUZZ\tVENDOR\tPRODUCT\tNAME\tPATH")
			for _, d := range devices {
				mark := ""
				if d.Buzz {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%04x\t%04x\t%s %s\t%s\n", mark, d.VendorID, d.ProductID, d.Manufacturer, d.Product, d.Path)
			}
			return w.Flush()
		},
	}
}
