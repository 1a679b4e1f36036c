package autocard

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func addFileToZip(archive *zip.Writer, filePath, archivePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return nil // Skip directories
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = archivePath
	header.Method = zip.Deflate

	writer, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}

	fileReader, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer fileReader.Close()

	_, err = io.Copy(writer, fileReader)
	return err
}

// ZipFiles archives inFiles flat under their base names. Duplicate base names
// get a numeric suffix instead of overwriting each other.
func ZipFiles(inFiles []string, zipFile string) error {
	out, err := os.Create(zipFile)
	if err != nil {
		return err
	}
	defer out.Close()

	archive := zip.NewWriter(out)

	used := make(map[string]bool, len(inFiles))
	for _, filePath := range inFiles {
		name := filepath.Base(filePath)
		ext := filepath.Ext(name)
		stem := name[:len(name)-len(ext)]
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		used[name] = true

		if err := addFileToZip(archive, filePath, name); err != nil {
			archive.Close()
			return fmt.Errorf("adding %s to archive: %w", filePath, err)
		}
	}

	return archive.Close()
}
