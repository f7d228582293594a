package genome

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

type gzipFile struct {
	io.Reader
	gz *gzip.Reader
	f  io.Closer
}

func (g *gzipFile) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

// openFile opens path for reading. "-" reads standard input. Gzip input is
// recognized by a .gz suffix or by its magic bytes and decompressed
// transparently.
func openFile(path string) (io.ReadCloser, error) {
	var f io.ReadCloser
	if path == Stdin {
		f = io.NopCloser(os.Stdin)
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		f = fh
	}

	br := bufio.NewReader(f)
	sig, _ := br.Peek(2)
	isGzip := len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b
	if !isGzip && !strings.HasSuffix(path, ".gz") {
		return struct {
			io.Reader
			io.Closer
		}{br, f}, nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return &gzipFile{Reader: gz, gz: gz, f: f}, nil
}
