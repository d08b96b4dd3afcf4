package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rflorenc/pipedrive-person-sync/internal/mapping"
	"github.com/rflorenc/pipedrive-person-sync/internal/personsync"
	"github.com/rflorenc/pipedrive-person-sync/internal/pipedrive"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upsert the input document as a Pipedrive person",
	Long: `Searches Pipedrive for a person named like the input document's mapped
"name" field. The first match is updated with the mapped payload; without a
match a new person is created. The run is a single attempt.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the payload without contacting Pipedrive")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !opts.dryRun {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
	}

	table, err := mapping.LoadTable(cfg.MappingFile)
	if err != nil {
		return err
	}
	doc, err := mapping.LoadDocument(cfg.InputFile)
	if err != nil {
		return err
	}

	syncer := personsync.NewFromConfig(cfg, table, pipedrive.WithLogger(log))

	if opts.dryRun {
		payload, err := syncer.Preview(doc)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		out, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	res, err := syncer.Run(cmd.Context(), doc, log.Line)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	person, _ := json.Marshal(res.Person)
	log.WithFields(logrus.Fields{
		"outcome":   res.Outcome,
		"person_id": res.PersonID,
	}).Infof("Result: %s", person)
	return nil
}
