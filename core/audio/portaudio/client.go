// Package portaudio is an alternative device client for platforms where
// the miniaudio backend is unavailable.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/oralprep/interview-core/core/audio"
)

type Client struct {
	bufferSize    int
	stream        *portaudio.Stream
	leftoverAudio []byte

	in  []int16
	out []int16

	capturing chan struct{}
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}, nil
}

// StartCapture reads microphone frames until StopCapture is called or ctx
// is cancelled, handing each chunk to onAudio.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	if c.capturing != nil {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	stop := make(chan struct{})
	c.capturing = stop

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			default:
				if err := c.stream.Read(); err != nil {
					continue
				}
				audioBuffer := bytes.Buffer{}
				_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
				onAudio(audioBuffer.Bytes())
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	if c.capturing == nil {
		return nil
	}
	close(c.capturing)
	c.capturing = nil
	return nil
}

func (c *Client) StartPlayback(context.Context) error {
	return nil
}

func (c *Client) StopPlayback() error {
	c.ClearBuffer()
	return nil
}

func (c *Client) SendAudio(audio []byte) error {
	bufferSize := c.bufferSize * 2

	audio = append(c.leftoverAudio, audio...)
	for i := 0; i <= len(audio)/bufferSize; i++ {
		if (i+1)*bufferSize > len(audio) {
			c.leftoverAudio = make([]byte, len(audio)-i*bufferSize)
			copy(c.leftoverAudio, audio[i*bufferSize:])
			break
		}

		_ = binary.Read(bytes.NewBuffer(audio[i*bufferSize:(i+1)*bufferSize]), binary.LittleEndian, c.out)
		_ = c.stream.Write()
	}

	return nil
}

func (c *Client) ClearBuffer() {
	c.leftoverAudio = make([]byte, 0)
}

// AwaitMark drains whatever is left in the playback buffer, padding the
// final partial frame with silence. Writes to the stream are blocking, so
// returning means the audio has been handed to the device.
func (c *Client) AwaitMark() error {
	bufferSize := c.bufferSize * 2

	buffered := padToFrame(c.leftoverAudio, bufferSize, c.EncodingInfo().SilenceValue())
	c.leftoverAudio = make([]byte, 0)
	for i := 0; i+bufferSize <= len(buffered); i += bufferSize {
		_ = binary.Read(bytes.NewBuffer(buffered[i:i+bufferSize]), binary.LittleEndian, c.out)
		_ = c.stream.Write()
	}
	return nil
}

// padToFrame extends audio to a whole number of frames using the
// encoding's silence byte.
func padToFrame(audio []byte, frameSize int, silence byte) []byte {
	remainder := len(audio) % frameSize
	if remainder == 0 {
		return audio
	}

	padded := make([]byte, len(audio)+frameSize-remainder)
	copy(padded, audio)
	for i := len(audio); i < len(padded); i++ {
		padded[i] = silence
	}
	return padded
}

func (c *Client) Close() {
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
