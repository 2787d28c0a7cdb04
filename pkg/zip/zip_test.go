package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchive(t *testing.T) {
	data, err := Archive([]Entry{
		{Name: "campaign.json", Data: []byte(`{"id":1}`)},
		{Name: "donations.csv", Data: []byte("id,amount\n")},
	})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "campaign.json" || zr.File[1].Name != "donations.csv" {
		t.Fatalf("unexpected files: %v", zr.File)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"id":1}` {
		t.Fatalf("content = %q", body)
	}
}
