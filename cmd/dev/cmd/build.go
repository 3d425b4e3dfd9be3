package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// platform is a build target of the CLI.
type platform struct {
	os   string
	arch string
}

// boards the bench CLI is deployed to
var boards = map[string]platform{
	"nanopi": {os: "linux", arch: "arm"},
	"rpi":    {os: "linux", arch: "arm64"},
}

func resolvePlatform(board, goos, goarch string) (platform, error) {
	if board == "" {
		return platform{os: goos, arch: goarch}, nil
	}
	p, ok := boards[board]
	if !ok {
		return platform{}, fmt.Errorf("unknown board %q", board)
	}
	return p, nil
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the i2s cli",
		Long: `Build the i2s cli into dist/i2s.

Cgo is required by the MCP2221 USB probe, so builds for another platform run
inside a docker build image unless --native is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, _ := cmd.Flags().GetString("version")
			board, _ := cmd.Flags().GetString("board")
			goos, _ := cmd.Flags().GetString("os")
			goarch, _ := cmd.Flags().GetString("arch")
			native, _ := cmd.Flags().GetBool("native")
			target, err := resolvePlatform(board, goos, goarch)
			if err != nil {
				return err
			}
			slog.Info("building i2s cli", "os", target.os, "arch", target.arch, "version", version)
			if native || (target.os == runtime.GOOS && target.arch == runtime.GOARCH) {
				return build.GoBuild("dist/i2s", "./cmd/i2s", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          target.arch,
					OS:            target.os,
				})
			}
			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			// the dev tool rebuilds itself in the image and runs a native build there
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", target.os, target.arch), []string{"build", "--native", "--version", version, "--os", target.os, "--arch", target.arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().Bool("native", false, "build with the local toolchain even for another platform")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("board", "", "target board: nanopi or rpi, overrides --os and --arch")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	return cmd
}
