package capture

import (
	"encoding/binary"
	"math"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core/live"
)

// mic captures 16 kHz mono float32 audio and delivers it in fixed blocks of
// live.InputBlockSize samples.
type mic struct {
	ctx malgo.Context

	mu      sync.Mutex
	device  *malgo.Device
	pending []float32
	onBlock func([]float32)
}

func newMic(ctx malgo.Context) *mic {
	return &mic{
		ctx:     ctx,
		pending: make([]float32, 0, live.InputBlockSize*2),
	}
}

func (m *mic) Start(onBlock func(block []float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		return core.NewDeviceUnavailableError("microphone is already capturing")
	}
	m.onBlock = onBlock
	m.pending = m.pending[:0]

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = live.InputSampleRate
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.onData(input)
		},
	}

	device, err := malgo.InitDevice(m.ctx, deviceConfig, callbacks)
	if err != nil {
		return mapDeviceError("microphone", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return mapDeviceError("microphone", err)
	}
	m.device = device
	return nil
}

func (m *mic) Stop() error {
	m.mu.Lock()
	device := m.device
	m.device = nil
	m.onBlock = nil
	m.mu.Unlock()

	if device != nil {
		device.Stop()
		device.Uninit()
	}
	return nil
}

func (m *mic) onData(input []byte) {
	m.mu.Lock()
	for i := 0; i+4 <= len(input); i += 4 {
		m.pending = append(m.pending,
			math.Float32frombits(binary.LittleEndian.Uint32(input[i:])))
	}

	var blocks [][]float32
	for len(m.pending) >= live.InputBlockSize {
		block := make([]float32, live.InputBlockSize)
		copy(block, m.pending[:live.InputBlockSize])
		m.pending = append(m.pending[:0], m.pending[live.InputBlockSize:]...)
		blocks = append(blocks, block)
	}
	onBlock := m.onBlock
	m.mu.Unlock()

	if onBlock == nil {
		return
	}
	for _, block := range blocks {
		onBlock(block)
	}
}

// mapDeviceError translates backend errors into the session error taxonomy.
func mapDeviceError(device string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "access denied") || strings.Contains(msg, "permission") {
		return core.NewPermissionDeniedError(device + " access denied: " + err.Error())
	}
	return core.NewDeviceUnavailableError(device + " unavailable: " + err.Error())
}
