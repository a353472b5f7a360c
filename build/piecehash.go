package build

import (
	"crypto/sha1"
	"io"
	"os"
	"runtime"

	"github.com/gookit/slog"
	"github.com/ztrue/tracerr"
)

// readBufferSize is the fixed-size buffer each worker reads through.
const readBufferSize = 64 * 1024

// minRecommendedPieceLength is the smallest piece length BitTorrent
// clients conventionally expect; smaller pieces bloat the pieces string
// without a matching transfer-efficiency benefit.
const minRecommendedPieceLength = 16 * 1024

func isPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// defaultMaxWorkers is used when Options.MaxWorkers is zero.
func defaultMaxWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// hashPieces computes the SHA-1 digest of every piece-aligned chunk of the
// logical stream formed by concatenating files in order, without ever
// materializing that stream. It may run up to maxWorkers goroutines
// concurrently, each owning one contiguous, piece-aligned span of the
// stream; a goroutine's own readBufferSize read buffer is the only memory
// it holds at a time, so maxWorkers also bounds the read-ahead budget.
func hashPieces(files []sourceFile, pieceLength int64, totalLength int64, maxWorkers int) ([]byte, error) {
	numPieces := int((totalLength + pieceLength - 1) / pieceLength)
	pieces := make([]byte, numPieces*20)
	if numPieces == 0 {
		return pieces, nil
	}

	spans := fileSpans(files)

	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers()
		slog.Warn("build: worker-pool size chosen for build", maxWorkers)
	}
	workers := maxWorkers
	if workers > numPieces {
		workers = numPieces
	}
	chunk := (numPieces + workers - 1) / workers

	d := newDispatcher(workers)
	errCh := make(chan error, workers)

	for start := 0; start < numPieces; start += chunk {
		end := start + chunk
		if end > numPieces {
			end = numPieces
		}
		d.run(func(start, end int) func() {
			return func() {
				if err := hashPieceRange(spans, pieceLength, totalLength, start, end, pieces); err != nil {
					errCh <- err
				}
			}
		}(start, end))
	}
	d.wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return pieces, nil
}

// hashPieceRange hashes pieces [start, end) of the logical stream and
// writes their digests directly into the shared pieces slice; the ranges
// different goroutines are given never overlap, so this needs no locking.
func hashPieceRange(spans []fileSpan, pieceLength, totalLength int64, start, end int, pieces []byte) error {
	offset := int64(start) * pieceLength
	length := int64(end-start) * pieceLength
	if offset+length > totalLength {
		length = totalLength - offset
	}

	r, err := newMultiFileReader(spans, offset, length)
	if err != nil {
		return err
	}
	defer r.Close()

	buf := make([]byte, readBufferSize)
	for i := start; i < end; i++ {
		pieceLen := pieceLength
		if remaining := totalLength - int64(i)*pieceLength; remaining < pieceLen {
			pieceLen = remaining
		}
		h := sha1.New()
		if _, err := io.CopyBuffer(h, io.LimitReader(r, pieceLen), buf); err != nil {
			return err
		}
		copy(pieces[i*20:(i+1)*20], h.Sum(nil))
	}
	return nil
}

// fileSpan is a file's placement within the logical, concatenated content
// stream.
type fileSpan struct {
	AbsPath string
	Length  int64
	Offset  int64
}

func fileSpans(files []sourceFile) []fileSpan {
	spans := make([]fileSpan, 0, len(files))
	var offset int64
	for _, f := range files {
		spans = append(spans, fileSpan{AbsPath: f.AbsPath, Length: f.Length, Offset: offset})
		offset += f.Length
	}
	return spans
}

// multiFileReader is an io.Reader over a byte range of the logical stream
// formed by concatenating a sorted file list, opening and closing each
// underlying file lazily so that a worker never holds more than one open
// file descriptor at a time. It keeps no buffer of its own; reads go
// straight into the caller's slice.
type multiFileReader struct {
	spans     []fileSpan
	idx       int
	cur       *os.File
	remaining int64
}

func newMultiFileReader(spans []fileSpan, offset, length int64) (*multiFileReader, error) {
	idx := 0
	for idx < len(spans) && offset >= spans[idx].Offset+spans[idx].Length {
		idx++
	}
	r := &multiFileReader{spans: spans, idx: idx, remaining: length}
	if length > 0 && idx < len(spans) {
		if err := r.openCurrent(offset - spans[idx].Offset); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *multiFileReader) openCurrent(seekTo int64) error {
	span := r.spans[r.idx]
	f, err := os.Open(span.AbsPath)
	if err != nil {
		return &IOError{Path: span.AbsPath, Cause: tracerr.Wrap(err)}
	}
	if seekTo > 0 {
		if _, err := f.Seek(seekTo, io.SeekStart); err != nil {
			f.Close()
			return &IOError{Path: span.AbsPath, Cause: tracerr.Wrap(err)}
		}
	}
	r.cur = f
	return nil
}

func (r *multiFileReader) Read(p []byte) (int, error) {
	for r.remaining > 0 {
		if r.cur == nil {
			if r.idx >= len(r.spans) {
				return 0, io.EOF
			}
			if err := r.openCurrent(0); err != nil {
				return 0, err
			}
		}

		max := int64(len(p))
		if max > r.remaining {
			max = r.remaining
		}
		n, err := r.cur.Read(p[:max])
		if n > 0 {
			r.remaining -= int64(n)
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, &IOError{Path: r.spans[r.idx].AbsPath, Cause: tracerr.Wrap(err)}
		}
		// current file exhausted; advance to the next span
		r.cur.Close()
		r.cur = nil
		r.idx++
	}
	return 0, io.EOF
}

func (r *multiFileReader) Close() error {
	if r.cur != nil {
		return r.cur.Close()
	}
	return nil
}
