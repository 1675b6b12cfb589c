package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/kindle-sync/internal/amazon"
	"github.com/mrlokans/kindle-sync/internal/config"
	"github.com/mrlokans/kindle-sync/internal/database"
	"github.com/mrlokans/kindle-sync/internal/database/settings"
	"github.com/mrlokans/kindle-sync/internal/entities"
)

// CookiesImportCommand copies an exported browser cookie file into place and
// records its path, so subsequent syncs pick it up automatically.
type CookiesImportCommand struct {
	File         string
	Dest         string
	DatabasePath string
}

func NewCookiesImportCommand() *CookiesImportCommand {
	return &CookiesImportCommand{}
}

func (cmd *CookiesImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cookies-import", flag.ExitOnError)

	fs.StringVar(&cmd.File, "file", "", "Path to the exported cookie JSON file (required)")
	fs.StringVar(&cmd.Dest, "dest", config.DefaultCookieFile, "Where to store the imported cookie file")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cookies-import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import Amazon session cookies exported from a logged-in browser.\n")
		fmt.Fprintf(os.Stderr, "The file is a JSON array of {name, value, domain, path} objects, as\n")
		fmt.Fprintf(os.Stderr, "produced by common cookie-export browser extensions.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *CookiesImportCommand) Run() error {
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}

	var cookies []amazon.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("parse cookie file %s: %w", cmd.File, err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("cookie file %s contains no cookies", cmd.File)
	}

	absDest, err := filepath.Abs(cmd.Dest)
	if err != nil {
		return fmt.Errorf("resolve destination path: %w", err)
	}

	if err := os.WriteFile(absDest, data, 0600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	settingsRepo := settings.NewRepository(db.DB)
	if err := settingsRepo.SetSetting(entities.SettingCookieFile, absDest); err != nil {
		return fmt.Errorf("store cookie file path: %w", err)
	}

	fmt.Printf("Imported %d cookies to %s\n", len(cookies), absDest)
	return nil
}
