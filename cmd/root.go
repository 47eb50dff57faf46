package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mdfc",
	Short: "Rhythm chart compiler",
	Long:  `mdfc compiles .mdfs rhythm-chart sources into flat, absolute-time .mdf charts, and indexes/serves a compiled chart corpus.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
