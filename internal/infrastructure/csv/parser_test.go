package csv_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	csvsource "github.com/acme-corp/customer-import/internal/infrastructure/csv"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "customers.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestSourceReadsHeaderAtOffsetZero(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "Customer Id,First Name,Email\nC001,Alice,alice@x\nC002,Bob,bob@x\n")
	src := csvsource.NewSource(0)

	stream, err := src.Open(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer stream.Close()

	if got := stream.Header(); len(got) != 3 {
		t.Fatalf("expected 3 header columns, got %v", got)
	}

	var rows []map[string]string
	for {
		rec, ok, err := stream.Next(context.Background())
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			break
		}
		rows = append(rows, rec)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Customer Id"] != "C001" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if stream.Offset() != info.Size() {
		t.Fatalf("expected offset %d at eof, got %d", info.Size(), stream.Offset())
	}
}

func TestSourceResumesAtExternalHeader(t *testing.T) {
	t.Parallel()

	content := "Customer Id,Email\nC001,alice@x\nC002,bob@x\n"
	path := writeTempFile(t, content)
	src := csvsource.NewSource(0)

	header := []string{"Customer Id", "Email"}
	offset := int64(len("Customer Id,Email\n"))

	stream, err := src.Open(context.Background(), path, offset, header)
	if err != nil {
		t.Fatalf("open at offset failed: %v", err)
	}
	defer stream.Close()

	rec, ok, err := stream.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected one row, got ok=%v err=%v", ok, err)
	}
	if rec["Customer Id"] != "C001" {
		t.Fatalf("unexpected row after resume: %v", rec)
	}
}

func TestSourceTolerantOfRaggedRows(t *testing.T) {
	t.Parallel()

	content := "Customer Id,First Name,Email\nC001,Alice\nC002,Bob,bob@x,extra\n"
	path := writeTempFile(t, content)
	src := csvsource.NewSource(0)

	stream, err := src.Open(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer stream.Close()

	rec1, _, err := stream.Next(context.Background())
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if rec1["Email"] != "" {
		t.Fatalf("expected missing column padded empty, got %q", rec1["Email"])
	}

	rec2, _, err := stream.Next(context.Background())
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if _, ok := rec2["extra"]; ok {
		t.Fatalf("expected extra column dropped, got %v", rec2)
	}
}

func TestSourceMissingFileErrors(t *testing.T) {
	t.Parallel()

	src := csvsource.NewSource(0)
	_, err := src.Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), 0, nil)
	if err == nil {
		t.Fatal("expected error opening missing file")
	}
}
