// Package export reads and writes player dump archives: a zstd stream
// carrying a one-line JSON header followed by the JSON dump body.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"emberhollow.gg/internal/state"
)

const dumpVersion = 1

type Header struct {
	Version    int    `json:"version"`
	UserID     string `json:"user_id"`
	ExportedAt string `json:"exported_at"`
}

func WriteDump(path string, d *state.PlayerDump) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(enc)
	header := Header{
		Version:    dumpVersion,
		UserID:     d.UserID,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	hb, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := json.NewEncoder(bw).Encode(d); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func ReadDump(path string) (Header, *state.PlayerDump, error) {
	var header Header
	f, err := os.Open(path)
	if err != nil {
		return header, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return header, nil, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return header, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &header); err != nil {
		return header, nil, fmt.Errorf("decode header: %w", err)
	}
	if header.Version != dumpVersion {
		return header, nil, fmt.Errorf("unsupported dump version %d", header.Version)
	}

	var d state.PlayerDump
	if err := json.NewDecoder(br).Decode(&d); err != nil {
		return header, nil, fmt.Errorf("decode dump: %w", err)
	}
	if d.UserID != header.UserID {
		return header, nil, fmt.Errorf("header user %q does not match body user %q", header.UserID, d.UserID)
	}
	return header, &d, nil
}
