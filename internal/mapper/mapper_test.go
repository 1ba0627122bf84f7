package mapper

import (
	"errors"
	"testing"
)

func TestGetKnownNetworks(t *testing.T) {
	for _, name := range []string{"flexoffers", "awin", "cj", "impact"} {
		m, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if m.Network() != name {
			t.Fatalf("Network() = %s, want %s", m.Network(), name)
		}
	}
}

func TestGetNormalizesName(t *testing.T) {
	m, err := Get("  Awin ")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Network() != "awin" {
		t.Fatalf("Network() = %s", m.Network())
	}
}

func TestGetUnknownNetwork(t *testing.T) {
	if _, err := Get("shareasale"); err == nil {
		t.Fatal("expected error for unknown network")
	}
}

func TestMappingErrorMessage(t *testing.T) {
	err := &MappingError{Network: "cj", Field: "advertiser-id"}
	want := "cj record is missing advertiser-id"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	var target *MappingError
	if !errors.As(error(err), &target) {
		t.Fatal("errors.As failed for *MappingError")
	}
}
