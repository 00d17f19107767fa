package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aluiziolira/go-scrape-laptops/models"
)

func sampleLaptops() []models.Laptop {
	return []models.Laptop{
		{
			Title:       "Asus VivoBook X441NA-GA190",
			Description: `Asus VivoBook X441NA-GA190 Chocolate Black, 14", Celeron N3450`,
			Price:       "$295.99",
			Rating:      "3",
			Reviews:     "14 reviews",
		},
		{
			Title:       "Prestigio SmartBook 133S Dark Grey",
			Description: "Prestigio SmartBook 133S Dark Grey,\n13.3\" FHD IPS",
			Price:       "$299",
			Rating:      "2",
			Reviews:     "8 reviews",
		},
		{
			Title:       "Prestigio SmartBook 133S Dark Grey",
			Description: "Prestigio SmartBook 133S Dark Grey,\n13.3\" FHD IPS",
			Price:       "$299",
			Rating:      "2",
			Reviews:     "8 reviews",
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestExportCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.csv")
	laptops := sampleLaptops()

	if err := ExportCSV(path, laptops); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != len(laptops)+1 {
		t.Fatalf("records=%d, want %d", len(records), len(laptops)+1)
	}
	for i, col := range CSVHeader {
		if records[0][i] != col {
			t.Fatalf("unexpected header: %v", records[0])
		}
	}
	for i, laptop := range laptops {
		want := []string{laptop.Title, laptop.Description, laptop.Price, laptop.Rating, laptop.Reviews}
		got := records[i+1]
		if len(got) != len(want) {
			t.Fatalf("row %d has %d fields, want %d", i+1, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("row %d field %d = %q, want %q", i+1, j, got[j], want[j])
			}
		}
	}
}

func TestExportCSVCarriageReturns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.csv")
	laptops := []models.Laptop{{
		Title:       "a\rb",
		Description: "c\r\nd",
		Price:       "$1",
		Rating:      "1",
		Reviews:     "1 reviews",
	}}

	if err := ExportCSV(path, laptops); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if got := records[1][0]; got != "a\nb" {
		t.Errorf("title=%q, want %q", got, "a\nb")
	}
	if got := records[1][1]; got != "c\nd" {
		t.Errorf("description=%q, want %q", got, "c\nd")
	}
}

func TestExportCSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.csv")

	if err := ExportCSV(path, nil); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got, want := string(data), "Model,Description,Price,Rating,Reviews\r\n"; got != want {
		t.Fatalf("file = %q, want %q", got, want)
	}
}

func TestExportCSVTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.csv")
	laptops := sampleLaptops()

	if err := ExportCSV(path, laptops); err != nil {
		t.Fatalf("first export: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read first export: %v", err)
	}

	if err := ExportCSV(path, laptops); err != nil {
		t.Fatalf("second export: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read second export: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("repeated export differs:\n%q\n%q", first, second)
	}

	if err := ExportCSV(path, laptops[:1]); err != nil {
		t.Fatalf("shorter export: %v", err)
	}
	if got := len(readCSV(t, path)); got != 2 {
		t.Fatalf("records after shorter export=%d, want 2", got)
	}
}

func TestExportCSVFilesystemError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := ExportCSV(filepath.Join(blocker, "laptops.csv"), sampleLaptops())
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FilesystemError, got %v", err)
	}
	if fsErr.Path == "" || fsErr.Op == "" {
		t.Fatalf("FilesystemError missing context: %+v", fsErr)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.xml")
	if err := Export("xml", path, sampleLaptops()); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("unsupported format should not create %s", path)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.jsonl")
	laptops := sampleLaptops()

	if err := Export(FormatJSON, path, laptops); err != nil {
		t.Fatalf("export json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var decoded []models.Laptop
	for scanner.Scan() {
		var laptop models.Laptop
		if err := json.Unmarshal(scanner.Bytes(), &laptop); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		decoded = append(decoded, laptop)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if len(decoded) != len(laptops) {
		t.Fatalf("json lines=%d, want %d", len(decoded), len(laptops))
	}
	for i := range laptops {
		if decoded[i] != laptops[i] {
			t.Errorf("line %d = %+v, want %+v", i, decoded[i], laptops[i])
		}
	}
}

func TestExportDual(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out", "laptops.csv")
	jsonPath := filepath.Join(dir, "out", "laptops.json")

	if err := Export(FormatDual, csvPath, sampleLaptops()); err != nil {
		t.Fatalf("export dual: %v", err)
	}

	if got := len(readCSV(t, csvPath)); got != 4 {
		t.Fatalf("csv records=%d, want 4", got)
	}
	if info, err := os.Stat(jsonPath); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}
