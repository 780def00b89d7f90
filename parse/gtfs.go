package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"tidbyt.dev/nearby/model"
)

func init() {
	// LazyCSVReader required (at least) to survive sloppy use of
	// quotes. The BOM reader strips unicode BOMs if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})
}

// Extracts the stations from a GTFS static feed.
func ParseStaticStops(buf []byte) ([]model.Station, error) {
	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("unzipping: %w", err)
	}

	for _, f := range r.File {
		// There should not be any subdirectories. But, some
		// agencies don't care.
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		if path[len(path)-1] != "stops.txt" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		defer rc.Close()

		stations, err := ParseStops(rc)
		if err != nil {
			return nil, fmt.Errorf("parsing stops.txt: %w", err)
		}
		return stations, nil
	}

	return nil, fmt.Errorf("missing stops.txt")
}

// Loads stations from either a GTFS zip, or a bare stops.txt.
func LoadStops(path string) ([]model.Station, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		return ParseStaticStops(buf)
	}

	stations, err := ParseStops(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return stations, nil
}
