package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/category"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category labels documents can be filtered by",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, label := range category.NewClassifier(GetConfig().Categories).Labels() {
			fmt.Println(label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
