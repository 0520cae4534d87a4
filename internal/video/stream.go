package video

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Reader decodes a file into a sequence of raw RGB24 frames through an
// ffmpeg child process. The stream is strictly sequential; Seek and
// Reset restart the decoder when they have to move backwards.
type Reader struct {
	path   string
	width  int
	height int

	cmd    *exec.Cmd
	out    io.ReadCloser
	errBuf *bytes.Buffer
	next   int // index of the frame the next ReadFrame returns
}

// OpenReader starts decoding path at the given frame dimensions. The
// dimensions normally come from Probe; a mismatch surfaces as a
// truncated final frame.
func OpenReader(path string, width, height int) (*Reader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	r := &Reader{path: path, width: width, height: height}
	if err := r.start(); err != nil {
		return nil, err
	}
	return r, nil
}

// FrameSize returns the byte length of one RGB24 frame.
func (r *Reader) FrameSize() int {
	return r.width * r.height * 3
}

func (r *Reader) start() error {
	cmd := exec.Command(ffmpegBin,
		"-v", "error",
		"-i", r.path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-")
	errBuf := &bytes.Buffer{}
	cmd.Stderr = errBuf
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("decoder pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}
	r.cmd = cmd
	r.out = out
	r.errBuf = errBuf
	r.next = 0
	return nil
}

// ReadFrame fills dst with the next frame. dst must be exactly
// FrameSize bytes. A cleanly exhausted stream returns io.EOF.
func (r *Reader) ReadFrame(dst []byte) error {
	if r.cmd == nil {
		return io.EOF
	}
	if len(dst) != r.FrameSize() {
		return fmt.Errorf("frame buffer is %d bytes, want %d", len(dst), r.FrameSize())
	}
	_, err := io.ReadFull(r.out, dst)
	switch err {
	case nil:
		r.next++
		return nil
	case io.EOF:
		if werr := r.finish(); werr != nil {
			return werr
		}
		return io.EOF
	case io.ErrUnexpectedEOF:
		if werr := r.finish(); werr != nil {
			return fmt.Errorf("truncated frame %d: %w", r.next, werr)
		}
		return fmt.Errorf("truncated frame %d", r.next)
	default:
		return fmt.Errorf("reading frame %d: %w", r.next, err)
	}
}

// finish reaps the decoder once its output is exhausted, surfacing a
// decode failure that ended the stream early.
func (r *Reader) finish() error {
	err := r.cmd.Wait()
	r.cmd = nil
	r.out = nil
	if err != nil {
		return fmt.Errorf("ffmpeg decoder: %w%s", err, stderrNote(r.errBuf))
	}
	return nil
}

// Seek positions the stream so the next ReadFrame returns the frame at
// index. Seeking forward discards the intervening frames; seeking
// backward restarts the decoder first.
func (r *Reader) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("negative frame index %d", index)
	}
	if index < r.next || r.cmd == nil {
		if err := r.Reset(); err != nil {
			return err
		}
	}
	if index == r.next {
		return nil
	}
	skip := make([]byte, r.FrameSize())
	for r.next < index {
		if err := r.ReadFrame(skip); err != nil {
			return fmt.Errorf("seeking to frame %d: %w", index, err)
		}
	}
	return nil
}

// Reset restarts decoding from the first frame.
func (r *Reader) Reset() error {
	r.stop()
	return r.start()
}

// Close releases the decoder process. The Reader stays resettable but
// returns io.EOF until then.
func (r *Reader) Close() error {
	r.stop()
	return nil
}

// stop kills a still-running decoder and reaps it.
func (r *Reader) stop() {
	if r.cmd == nil {
		return
	}
	r.out.Close()
	r.cmd.Process.Kill()
	r.cmd.Wait()
	r.cmd = nil
	r.out = nil
}

// Writer encodes raw RGB24 frames into a video file through an ffmpeg
// child process.
type Writer struct {
	cmd       *exec.Cmd
	in        io.WriteCloser
	errBuf    *bytes.Buffer
	frameSize int
	frames    int
}

// OpenWriter starts an encoder that assembles fixed-size frames into
// path at the given rate. Width and height must be even: the encoder's
// 4:2:0 chroma layout cannot represent odd dimensions.
func OpenWriter(path string, width, height int, fps float64) (*Writer, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("invalid output frame size %dx%d", width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %g", fps)
	}
	cmd := exec.Command(ffmpegBin,
		"-y",
		"-v", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-c:v", "mpeg4",
		"-q:v", "2",
		path)
	errBuf := &bytes.Buffer{}
	cmd.Stderr = errBuf
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	return &Writer{
		cmd:       cmd,
		in:        in,
		errBuf:    errBuf,
		frameSize: width * height * 3,
	}, nil
}

// WriteFrame appends one frame to the output.
func (w *Writer) WriteFrame(pix []byte) error {
	if w.cmd == nil {
		return errors.New("writer is closed")
	}
	if len(pix) != w.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d", len(pix), w.frameSize)
	}
	if _, err := w.in.Write(pix); err != nil {
		return fmt.Errorf("writing frame %d: %w%s", w.frames, err, stderrNote(w.errBuf))
	}
	w.frames++
	return nil
}

// Frames returns how many frames have been written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes the stream and waits for the encoder to exit. The
// output file is not complete until Close returns nil.
func (w *Writer) Close() error {
	if w.cmd == nil {
		return nil
	}
	w.in.Close()
	err := w.cmd.Wait()
	w.cmd = nil
	if err != nil {
		return fmt.Errorf("ffmpeg encoder: %w%s", err, stderrNote(w.errBuf))
	}
	return nil
}

// stderrNote formats captured ffmpeg stderr for inclusion in an error,
// keeping only the final line.
func stderrNote(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	return ": " + strings.TrimSpace(lines[len(lines)-1])
}
