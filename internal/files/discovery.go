package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ResultSuffix marks files written by the exporter so they are not picked up as input.
const ResultSuffix = "_errors"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Format  TableFormat
	Size    int64
	ModTime time.Time
}

// Discovery finds trial tables on disk
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindTrialFiles lists CSV and XLSX files in dir, sorted by name. Spreadsheet lock
// files ("~$...") and previously exported results are skipped.
func (d *Discovery) FindTrialFiles(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		format, err := DetectFormat(name)
		if err != nil {
			continue
		}
		if strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), ResultSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// ResultName derives the export file name for a trial file, e.g.
// "resistor_data.csv" -> "resistor_data_errors.xlsx" for ext ".xlsx".
func ResultName(trialFile, ext string) string {
	base := filepath.Base(trialFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ResultSuffix + ext
}
