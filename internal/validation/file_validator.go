package validation

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	apperrors "uncertcli/internal/errors"
	"uncertcli/internal/files"
	"uncertcli/internal/infrastructure"
)

// PathKind tells whether a data path names one trial table or a directory of them.
type PathKind int

const (
	PathFile PathKind = iota
	PathDirectory
)

// FileValidator checks trial, calibration and output paths before a run starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{
		logger: infrastructure.WithComponent(logger, "file_validator"),
	}
}

// ValidateDataPath accepts a readable trial table or a directory.
func (v *FileValidator) ValidateDataPath(path string) (PathKind, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Data path does not exist", slog.String("path", path))
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("data path %s", path))
	}
	if err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}

	if info.IsDir() {
		v.logger.Debug("Data path is a directory", slog.String("path", path))
		return PathDirectory, nil
	}
	return PathFile, v.ValidateTableFile(path)
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateTableFile checks that path is a readable CSV or XLSX table and not a
// spreadsheet lock file.
func (v *FileValidator) ValidateTableFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.ValidateTableName(filepath.Base(path))
}

// ValidateTableName checks a file name, e.g. of an upload, without touching disk.
func (v *FileValidator) ValidateTableName(name string) error {
	if strings.HasPrefix(filepath.Base(name), "~$") {
		v.logger.Warn("Rejecting spreadsheet lock file", slog.String("file", name))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary spreadsheet file", name))
	}
	if _, err := files.DetectFormat(name); err != nil {
		v.logger.Error("File is not a CSV or XLSX table",
			slog.String("file", name),
			slog.String("extension", filepath.Ext(name)))
		return apperrors.NewAppValidationError(err.Error())
	}
	return nil
}

// ValidateCalibrationFile checks the calibration table path.
func (v *FileValidator) ValidateCalibrationFile(path string) error {
	if path == "" {
		return apperrors.NewConfigError("calibration file is not configured", nil)
	}
	if err := v.ValidateTableFile(path); err != nil {
		return apperrors.NewCalibrationError("calibration file unusable", err)
	}
	return nil
}

// ValidateUpload checks a multipart trial table against a size limit.
func (v *FileValidator) ValidateUpload(header *multipart.FileHeader, maxBytes int64) error {
	if header == nil {
		return apperrors.NewAppValidationError("trials file is required")
	}
	if maxBytes > 0 && header.Size > maxBytes {
		v.logger.Warn("Upload exceeds size limit",
			slog.String("file", header.Filename),
			slog.Int64("size", header.Size),
			slog.Int64("limit", maxBytes))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s is %d bytes, limit is %d", header.Filename, header.Size, maxBytes))
	}
	return v.ValidateTableName(header.Filename)
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
