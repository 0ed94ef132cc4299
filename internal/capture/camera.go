package capture

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
)

// CameraOptions configures the ffmpeg capture process.
type CameraOptions struct {
	// FFmpegPath is the ffmpeg binary. Defaults to "ffmpeg" on PATH.
	FFmpegPath string
	// Device is the capture device. Defaults per platform: /dev/video0 on
	// Linux, device index 0 on macOS.
	Device string
	// Width and Height of the captured frames.
	Width, Height int
	// FrameRate in frames per second.
	FrameRate int
	// Quality is the MJPEG quantizer, 2 (best) to 31 (worst).
	Quality int
}

func (o CameraOptions) withDefaults() CameraOptions {
	if o.FFmpegPath == "" {
		o.FFmpegPath = "ffmpeg"
	}
	if o.Device == "" {
		switch runtime.GOOS {
		case "darwin":
			o.Device = "0"
		case "windows":
			o.Device = "video=Integrated Camera"
		default:
			o.Device = "/dev/video0"
		}
	}
	if o.Width == 0 {
		o.Width = 1280
	}
	if o.Height == 0 {
		o.Height = 720
	}
	if o.FrameRate == 0 {
		o.FrameRate = 10
	}
	if o.Quality == 0 {
		o.Quality = 5
	}
	return o
}

func (o CameraOptions) args() []string {
	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-framerate", fmt.Sprint(o.FrameRate), "-i", o.Device}
	case "windows":
		input = []string{"-f", "dshow", "-i", o.Device}
	default:
		input = []string{"-f", "v4l2", "-framerate", fmt.Sprint(o.FrameRate), "-i", o.Device}
	}
	return append(input,
		"-vf", fmt.Sprintf("scale=%d:%d", o.Width, o.Height),
		"-r", fmt.Sprint(o.FrameRate),
		"-q:v", fmt.Sprint(o.Quality),
		"-f", "mjpeg",
		"pipe:1",
	)
}

// camera reads an MJPEG stream from an ffmpeg child process and keeps only
// the most recent complete frame.
type camera struct {
	cmd    *exec.Cmd
	logger zerolog.Logger

	mu    sync.Mutex
	frame []byte
	done  chan struct{}
}

func startCamera(opts CameraOptions, logger zerolog.Logger) (*camera, error) {
	opts = opts.withDefaults()

	cmd := exec.Command(opts.FFmpegPath, opts.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, core.NewDeviceUnavailableError("camera pipe: " + err.Error())
	}
	if err := cmd.Start(); err != nil {
		return nil, core.NewDeviceUnavailableError("start ffmpeg: " + err.Error())
	}

	c := &camera{
		cmd:    cmd,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.readLoop(stdout)
	return c, nil
}

// Frame returns the most recent complete JPEG, or nil before the first frame
// arrives.
func (c *camera) Frame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return nil
	}
	out := make([]byte, len(c.frame))
	copy(out, c.frame)
	return out
}

func (c *camera) readLoop(stdout io.Reader) {
	defer close(c.done)

	var pending []byte
	buf := make([]byte, 64<<10)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			var frames [][]byte
			frames, pending = extractJPEGFrames(pending)
			if len(frames) > 0 {
				latest := frames[len(frames)-1]
				c.mu.Lock()
				c.frame = latest
				c.mu.Unlock()
			}
		}
		if err != nil {
			if err != io.EOF {
				c.logger.Warn().Err(err).Msg("camera stream read failed")
			}
			return
		}
	}
}

func (c *camera) stop() {
	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	c.cmd.Wait()
	<-c.done
}

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// extractJPEGFrames pulls complete JPEG images out of an MJPEG byte stream,
// returning them in order plus the unconsumed tail.
func extractJPEGFrames(data []byte) (frames [][]byte, rest []byte) {
	for {
		start := bytes.Index(data, jpegSOI)
		if start < 0 {
			// Keep the last byte in case it is the first half of a marker.
			if len(data) > 1 {
				data = data[len(data)-1:]
			}
			return frames, data
		}
		end := bytes.Index(data[start+2:], jpegEOI)
		if end < 0 {
			return frames, data[start:]
		}
		end += start + 2 + 2
		frame := make([]byte, end-start)
		copy(frame, data[start:end])
		frames = append(frames, frame)
		data = data[end:]
	}
}
