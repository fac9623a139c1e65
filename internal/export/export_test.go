package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"emberhollow.gg/internal/state"
)

func sampleDump() *state.PlayerDump {
	name := "Tester"
	return &state.PlayerDump{
		UserID: "user-export",
		Name:   &name,
		Points: 40,
		Town:   &state.TownDump{TownID: "town-000042", Seed: 42, Version: 7},
		Flags:  []string{"herb_collected", "herb_quest_started"},
		Items:  []state.ItemDump{{ItemID: "herb_bundle", Qty: 1}},
		Dialogs: []state.DialogDump{
			{NPCID: "npc_tarin", NodeIndex: 2},
		},
		Ledger: []state.LedgerDump{
			{EventID: "open_chest_herb", Result: json.RawMessage(`{"message_key":"event.chest_herb_opened"}`)},
		},
	}
}

func TestDumpRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dumps", "user-export.json.zst")
	in := sampleDump()
	if err := WriteDump(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	header, out, err := ReadDump(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if header.Version != dumpVersion || header.UserID != in.UserID {
		t.Fatalf("header %+v", header)
	}
	if header.ExportedAt == "" {
		t.Fatal("header missing exported_at")
	}
	if out.UserID != in.UserID || out.Points != in.Points {
		t.Fatalf("identity differs: %+v", out)
	}
	if out.Town == nil || out.Town.Version != 7 {
		t.Fatalf("town dump lost: %+v", out.Town)
	}
	if len(out.Flags) != 2 || len(out.Items) != 1 || len(out.Ledger) != 1 {
		t.Fatalf("state lost: %+v", out)
	}
	if string(out.Ledger[0].Result) != string(in.Ledger[0].Result) {
		t.Fatalf("ledger result mangled: %s", out.Ledger[0].Result)
	}
}

func TestReadDumpRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.zst")
	if err := os.WriteFile(path, []byte("not a zstd stream"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := ReadDump(path); err == nil {
		t.Fatal("expected error for non-zstd input")
	}
}

func TestReadDumpRejectsUserMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forged.json.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	body, _ := json.Marshal(sampleDump())
	header := `{"version":1,"user_id":"someone-else","exported_at":"2026-01-01T00:00:00Z"}`
	if _, err := enc.Write(append([]byte(header+"\n"), body...)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close zstd: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, _, err := ReadDump(path); err == nil {
		t.Fatal("expected error for header/body user mismatch")
	}
}
