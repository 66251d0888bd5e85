// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/resolvd/resolvd/internal/build"
)

// NewRootCommand enables all children commands to read flags from CLI flags,
// environment variables prefixed with RESOLVD, or config.yaml (in that
// order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("RESOLVD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/resolvd", "$HOME/.resolvd", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	_ = viper.ReadInConfig()

	return &cobra.Command{
		Use:   "resolvd",
		Short: "A content resolution engine that finds playable sources for tracks",
		Long: `A content resolution engine that finds playable sources for tracks.

resolvd drives every track query through an ordered set of pluggable
resolvers - the local library first, then any configured remote search
APIs - until the query is satisfied or every resolver has been tried.`,
	}
}

// NewVersionCommand returns the command to print the resolvd version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Return the resolvd version",
		Long:  "Return the resolvd version.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log.Printf("resolvd version %s date %s commit id %s", build.Version, build.Date, build.Commit)
			return nil
		},
	}
}
