// Package capture provides the microphone, camera and speaker devices backing
// a live session: malgo for audio input, an ffmpeg MJPEG stream for video,
// and oto for audio output.
package capture

import (
	"context"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
)

// Options configures device acquisition.
type Options struct {
	// VideoEnabled controls whether a camera is opened at all.
	VideoEnabled bool
	// Camera configures the ffmpeg capture process.
	Camera CameraOptions
	// Logger receives device diagnostics.
	Logger zerolog.Logger
}

// Adapter acquires and releases capture devices. It implements
// live.MediaAdapter. Acquire and Release are safe for concurrent use.
type Adapter struct {
	opts Options

	mu        sync.Mutex
	malgoCtx  *malgo.AllocatedContext
	mic       *mic
	camera    *camera
	cameraErr string
	acquired  bool
}

// NewAdapter creates an adapter with the given options.
func NewAdapter(opts Options) *Adapter {
	return &Adapter{opts: opts}
}

// Acquire opens the microphone and, when enabled, the camera. A failing
// camera is reported through Media.CameraErr; the microphone is mandatory.
func (a *Adapter) Acquire(ctx context.Context) (live.Media, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.acquired {
		return a.currentMedia(), nil
	}

	cfg := malgo.ContextConfig{}
	cfg.ThreadPriority = malgo.ThreadPriorityRealtime
	malgoCtx, err := malgo.InitContext(nil, cfg, nil)
	if err != nil {
		return live.Media{}, mapDeviceError("audio backend", err)
	}
	a.malgoCtx = malgoCtx
	a.mic = newMic(malgoCtx.Context)

	if a.opts.VideoEnabled {
		cam, err := startCamera(a.opts.Camera, a.opts.Logger)
		if err != nil {
			a.opts.Logger.Warn().Err(err).Msg("camera unavailable")
			a.cameraErr = err.Error()
		} else {
			a.camera = cam
		}
	}

	a.acquired = true
	return a.currentMedia(), nil
}

func (a *Adapter) currentMedia() live.Media {
	media := live.Media{Mic: a.mic}
	if a.camera != nil {
		media.Camera = a.camera
	} else if a.opts.VideoEnabled {
		media.CameraErr = a.cameraErr
	}
	return media
}

// Release closes all acquired devices. Safe to call more than once, including
// from concurrent goroutines; only the first call releases anything.
func (a *Adapter) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.acquired {
		return nil
	}
	a.acquired = false

	if a.mic != nil {
		a.mic.Stop()
		a.mic = nil
	}
	if a.camera != nil {
		a.camera.stop()
		a.camera = nil
	}
	if a.malgoCtx != nil {
		a.malgoCtx.Uninit()
		a.malgoCtx = nil
	}
	return nil
}
