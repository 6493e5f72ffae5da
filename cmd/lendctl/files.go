package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Shaurya-Ps-Bisht/Intelligent-Lending/internal/domain"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Browse application files",
}

var filesListCmd = &cobra.Command{
	Use:       "list input|output",
	Short:     "List input or output files",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{domain.PrefixInput, domain.PrefixOutput},
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := newClient().ListFiles(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No files.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSIZE\tLAST MODIFIED")
		for _, f := range files {
			fmt.Fprintf(w, "%s\t%d\t%s\n", f.Key, f.Size, f.LastModified)
		}
		return w.Flush()
	},
}

var filesReadCmd = &cobra.Command{
	Use:   "read <key>",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := newClient().ReadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesReadCmd)
}
