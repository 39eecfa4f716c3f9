package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// EnvCommand returns the env command
func EnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Check environment configuration",
		Action: func(c *cli.Context) error {
			result := CheckRequiredConfig()
			PrintConfigCheck(result)
			if len(result.Missing) > 0 {
				return fmt.Errorf("missing required configuration")
			}
			return nil
		},
	}
}
