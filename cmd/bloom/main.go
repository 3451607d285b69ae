package main

import (
	"os"

	"github.com/RagOfJoes/bloom/internal/config"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Configuration flags
const (
	configNameFlag = "config"
	configTypeFlag = "config-type"
	configPathFlag = "config-path"
)

func configFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		configNameFlag: &cobraflags.StringFlag{
			Name:  configNameFlag,
			Value: "bloom",
			Usage: "Name of the configuration file without extension",
		},
		configTypeFlag: &cobraflags.StringFlag{
			Name:  configTypeFlag,
			Value: "yaml",
			Usage: "Format of the configuration file",
		},
		configPathFlag: &cobraflags.StringFlag{
			Name:  configPathFlag,
			Value: "/etc/bloom/",
			Usage: "Directory the configuration file is read from",
		},
	}
}

// loadConfig reads the configuration named by flags and builds the logger
// from it
func loadConfig(flags map[string]cobraflags.Flag) (config.Configuration, zerolog.Logger, error) {
	cfg, err := config.New(
		flags[configNameFlag].GetString(),
		flags[configTypeFlag].GetString(),
		flags[configPathFlag].GetString(),
	)
	if err != nil {
		return config.Configuration{}, zerolog.Logger{}, err
	}
	return *cfg, logger.New(*cfg), nil
}

// command builds a subcommand carrying the configuration flags. run receives
// the loaded configuration
func command(use string, short string, run func(cmd *cobra.Command, cfg config.Configuration, log zerolog.Logger) error) *cobra.Command {
	flags := configFlags()
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return run(cmd, cfg, log)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bloom",
		Short: "Multi-tenant commerce backend",
	}
	root.AddCommand(
		command("serve", "Run the HTTP API", serve),
		command("worker", "Consume background jobs and publish recurring ones", work),
		command("migrate", "Migrate the database and install audit triggers", migrate),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
