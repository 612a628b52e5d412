package wsconfigcli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oremus-labs/wsconfig-core/internal/daemon"
)

// version can be stamped at build time with
// -ldflags "-X github.com/oremus-labs/wsconfig-core/internal/wsconfigcli.version=...";
// it defaults to "dev" otherwise.
var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wsconfig HTTP daemon in the foreground",
	Long: `serve starts the same HTTP service as the standalone wsconfigd
binary: hardware detection, catalog queries, and the recommendation
pipeline, exposed over HTTP for the wizard UI and installer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.Run(context.Background(), appConfig, version)
	},
}
