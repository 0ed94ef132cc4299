package live

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/ataikorhezekiah-oss/WardrobeGuide/pkg/core"
)

// AudioBlockMimeType is the media type of outbound microphone audio.
const AudioBlockMimeType = "audio/pcm;rate=16000"

// VideoFrameMimeType is the media type of outbound camera frames.
const VideoFrameMimeType = "image/jpeg"

// MaxVideoFrameBytes bounds the size of a single outbound frame. Anything
// larger indicates a broken encoder upstream.
const MaxVideoFrameBytes = 4 << 20

// EncodeAudioBlock converts one block of float32 samples into an outbound
// Blob. Samples are scaled to signed 16-bit little-endian PCM, clamping any
// value outside [-1, 1].
func EncodeAudioBlock(block []float32) Blob {
	pcm := make([]byte, len(block)*2)
	for i, sample := range block {
		v := int32(sample * 32768)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}
	return Blob{
		MimeType: AudioBlockMimeType,
		Data:     base64.StdEncoding.EncodeToString(pcm),
	}
}

// EncodeVideoFrame wraps an already-encoded JPEG frame into an outbound Blob.
func EncodeVideoFrame(jpeg []byte) (Blob, error) {
	if len(jpeg) == 0 {
		return Blob{}, core.NewMalformedResponseError("empty video frame")
	}
	if len(jpeg) > MaxVideoFrameBytes {
		return Blob{}, core.NewMalformedResponseError(
			fmt.Sprintf("video frame too large: %d bytes", len(jpeg)))
	}
	return Blob{
		MimeType: VideoFrameMimeType,
		Data:     base64.StdEncoding.EncodeToString(jpeg),
	}, nil
}

// ParsePCMRate extracts the sample rate from a media type such as
// "audio/pcm;rate=24000". It falls back to OutputSampleRate when the rate
// parameter is missing or unparseable.
func ParsePCMRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		if rest, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(rest); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return OutputSampleRate
}
