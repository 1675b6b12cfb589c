package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/kindle-sync/internal/config"
	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/settings"
	"github.com/mrlokans/kindle-sync/internal/regions"
)

// RegionCommand shows or changes the Amazon region used for scraping.
type RegionCommand struct {
	Set          string
	List         bool
	DatabasePath string
}

func NewRegionCommand() *RegionCommand {
	return &RegionCommand{}
}

func (cmd *RegionCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("region", flag.ExitOnError)

	fs.StringVar(&cmd.Set, "set", "", "Region to switch to (see -list for the supported values)")
	fs.BoolVar(&cmd.List, "list", false, "List the supported regions")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s region [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show or change the Amazon region. Without options the current region\n")
		fmt.Fprintf(os.Stderr, "is printed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *RegionCommand) Run() error {
	if cmd.List {
		fmt.Println("Supported regions:")
		for _, region := range regions.All() {
			cfg, err := regions.Resolve(region)
			if err != nil {
				continue
			}
			fmt.Printf("  %-10s %s (%s)\n", region, cfg.DisplayName, cfg.Hostname)
		}
		return nil
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	settingsRepo := settings.NewRepository(db.DB)

	if cmd.Set != "" {
		region := regions.Region(cmd.Set)
		if err := settingsRepo.SetRegion(region); err != nil {
			return err
		}
		cfg, _ := regions.Resolve(region)
		fmt.Printf("Region set to %s (%s)\n", region, cfg.DisplayName)
		return nil
	}

	region, err := settingsRepo.Region()
	if err != nil {
		return err
	}
	cfg, err := regions.Resolve(region)
	if err != nil {
		return err
	}
	fmt.Printf("Current region: %s (%s, %s)\n", region, cfg.DisplayName, cfg.Hostname)
	return nil
}
