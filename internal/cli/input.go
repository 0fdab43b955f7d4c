package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/walletkit-demo/walletpass/internal/crypto"
)

// readInput returns the content of path, or of stdin when path is "-"
func readInput(in io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readKeyPEM loads a PEM key file given on the command line.
// Access is scoped to the directory the file is in.
func readKeyPEM(path string) (string, error) {
	return crypto.ReadPEMFile(filepath.Dir(path), filepath.Base(path))
}

// trimmedInput is readInput with surrounding whitespace removed (for envelopes and signatures kept in files)
func trimmedInput(in io.Reader, path string) (string, error) {
	data, err := readInput(in, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
