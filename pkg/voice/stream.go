package voice

import (
	"context"
	"io"
	"math"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"layeh.com/gopus"
)

const (
	sampleRate   = 48000
	channels     = 2
	frameSamples = 960                         // 20ms at 48kHz
	frameBytes   = frameSamples * channels * 2 // s16le
)

// stream is one ffmpeg decode -> Opus encode -> OpusSend pass over a single
// audio file. Its completion callback fires exactly once, whether the file
// ends naturally, stop is called or the pipeline fails.
type stream struct {
	vc     *discordgo.VoiceConnection
	cmd    *exec.Cmd
	ctx    context.Context
	cancel context.CancelFunc

	encoder *gopus.Encoder
	volume  atomic.Uint64 // math.Float64bits
	paused  atomic.Bool
	live    atomic.Bool

	completeOnce sync.Once
	onComplete   func(error)
}

func startStream(vc *discordgo.VoiceConnection, filePath string, volume float64, startAt time.Duration, onComplete func(error)) (*stream, error) {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create opus encoder")
	}
	encoder.SetBitrate(128000)

	args := []string{"-hide_banner", "-loglevel", "error"}
	if startAt > 0 {
		args = append(args, "-ss", strconv.FormatFloat(startAt.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-i", filePath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-")

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to create stderr pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to create stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to start ffmpeg")
	}
	go consumeStderr(stderr)

	st := &stream{
		vc:         vc,
		cmd:        cmd,
		ctx:        ctx,
		cancel:     cancel,
		encoder:    encoder,
		onComplete: onComplete,
	}
	st.setVolume(volume)
	st.live.Store(true)

	go st.run(stdout)
	return st, nil
}

func (s *stream) run(pcm io.Reader) {
	var streamErr error
	defer func() {
		s.live.Store(false)
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		s.cmd.Wait()
		s.vc.Speaking(false)
		s.finish(streamErr)
	}()

	s.vc.Speaking(true)
	buffer := make([]byte, frameBytes)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if s.paused.Load() {
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		_, err := io.ReadFull(pcm, buffer)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			zlog.Debug().Msg("ffmpeg stream ended")
			return
		}
		if err != nil {
			streamErr = errors.Wrap(err, "error reading PCM data")
			return
		}

		samples := bytesToInt16(buffer)
		s.applyVolume(samples)

		opusData, err := s.encoder.Encode(samples, frameSamples, frameBytes)
		if err != nil {
			zlog.Warn().Err(err).Msg("Opus encoding error, skipping frame")
			continue
		}

		select {
		case s.vc.OpusSend <- opusData:
		case <-s.ctx.Done():
			return
		case <-time.After(time.Second):
			zlog.Warn().Msg("OpusSend blocked, dropping frame")
		}
	}
}

// stop cancels the pipeline. Idempotent; the completion callback still
// fires exactly once.
func (s *stream) stop() {
	s.cancel()
}

func (s *stream) finish(err error) {
	s.completeOnce.Do(func() {
		if s.onComplete != nil {
			s.onComplete(err)
		}
	})
}

func (s *stream) running() bool {
	return s.live.Load()
}

func (s *stream) setPaused(p bool) {
	s.paused.Store(p)
}

func (s *stream) isPaused() bool {
	return s.paused.Load()
}

func (s *stream) setVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 2 {
		v = 2
	}
	s.volume.Store(math.Float64bits(v))
}

func (s *stream) applyVolume(samples []int16) {
	v := math.Float64frombits(s.volume.Load())
	if v == 1 {
		return
	}
	for i, sample := range samples {
		scaled := float64(sample) * v
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		}
		if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		samples[i] = int16(scaled)
	}
}

func consumeStderr(stderr io.ReadCloser) {
	defer stderr.Close()
	buffer := make([]byte, 1024)
	for {
		if _, err := stderr.Read(buffer); err != nil {
			return
		}
	}
}

func bytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}
