package regions

import (
	"errors"
	"testing"
)

func TestResolve_KnownRegions(t *testing.T) {
	tests := []struct {
		region       Region
		wantHostname string
		wantNotebook string
	}{
		{Global, "amazon.com", "https://read.amazon.com/notebook"},
		{UK, "amazon.co.uk", "https://read.amazon.co.uk/notebook"},
		{Germany, "amazon.de", "https://lesen.amazon.de/notebook"},
		{Japan, "amazon.co.jp", "https://read.amazon.co.jp/notebook"},
		{India, "amazon.in", "https://read.amazon.in/notebook"},
		{Spain, "amazon.es", "https://leer.amazon.es/notebook"},
		{Italy, "amazon.it", "https://leggi.amazon.it/notebook"},
		{France, "amazon.fr", "https://lire.amazon.fr/notebook"},
	}

	for _, tt := range tests {
		t.Run(string(tt.region), func(t *testing.T) {
			cfg, err := Resolve(tt.region)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.region, err)
			}
			if cfg.Hostname != tt.wantHostname {
				t.Errorf("hostname = %q, want %q", cfg.Hostname, tt.wantHostname)
			}
			if cfg.NotebookURL != tt.wantNotebook {
				t.Errorf("notebook URL = %q, want %q", cfg.NotebookURL, tt.wantNotebook)
			}
			if cfg.DisplayName == "" {
				t.Error("display name is empty")
			}
		})
	}
}

func TestResolve_UnknownRegion(t *testing.T) {
	_, err := Resolve(Region("atlantis"))
	if err == nil {
		t.Fatal("expected error for unknown region")
	}
	if !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("error = %v, want ErrUnknownRegion", err)
	}
}

func TestAll_CoversEveryRegion(t *testing.T) {
	all := All()
	if len(all) != 8 {
		t.Fatalf("expected 8 regions, got %d", len(all))
	}
	for _, r := range all {
		if _, err := Resolve(r); err != nil {
			t.Errorf("All() returned unresolvable region %q", r)
		}
	}
}
