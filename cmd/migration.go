package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the posts schema",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	defer StopApp()

	logrus.Info("[MIGRATION] Migrating posts schema...")
	ensureSchema()

	count, err := postRepo.Count(appCtx)
	if err != nil {
		logrus.Fatalf("[MIGRATION] failed to count posts: %v", err)
	}
	logrus.Infof("[MIGRATION] Schema ready, %d posts stored", count)
}
