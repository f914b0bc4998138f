package assets

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// bytes per decoded sample frame: two float64 channels
const sampleFrameSize = 16

// Sound decodes a WAV file into memory. Decoding runs on the job system when
// one is available; Load keeps returning core.ErrWait until it finishes.
type Sound struct {
	resources.Base
	dir    string
	path   string
	stream bool

	mutex   sync.Mutex
	decode  *soundDecode
	buffer  *beep.Buffer
	tracked int64
}

type soundDecode struct {
	done   bool
	err    error
	buffer *beep.Buffer
}

// SoundInstance plays a loaded sound from the start.
type SoundInstance struct {
	beep.StreamSeeker
	Format beep.Format
}

func NewSound(id resources.ID, env *resources.Env) resources.Resource {
	return &Sound{Base: resources.NewBase(id, env)}
}

func (s *Sound) Create(dir string, node *resources.Node) error {
	path, err := node.Required("path")
	if err != nil {
		return err
	}
	stream, err := node.Bool("stream", false)
	if err != nil {
		return err
	}
	s.dir = dir
	s.path = path
	s.stream = stream
	return nil
}

func (s *Sound) Load() error {
	return s.DriveLoad(func() error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		if s.decode == nil {
			d := &soundDecode{}
			s.decode = d
			if !s.submit(d) {
				s.finish(d)
			}
		}
		if !s.decode.done {
			return core.ErrWait
		}
		d := s.decode
		s.decode = nil
		if d.err != nil {
			return d.err
		}
		s.buffer = d.buffer
		s.tracked = int64(d.buffer.Len()) * sampleFrameSize
		s.Track(s.tracked)
		s.Log().LogDebug("sound '%s' decoded, %s", s.Name(), s.durationLocked())
		return nil
	})
}

// submit hands the decode to the job system. It returns false when there is
// none and the caller must decode inline.
func (s *Sound) submit(d *soundDecode) bool {
	jobs := s.Env().Jobs
	if jobs == nil {
		return false
	}
	var buf *beep.Buffer
	jobs.Submit(core.JobTask{
		OnStart: func() error {
			var err error
			buf, err = s.decodeFile()
			return err
		},
		OnComplete: func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			d.buffer = buf
			d.done = true
		},
		OnFailure: func(err error) {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			d.err = err
			d.done = true
		},
	})
	return true
}

func (s *Sound) finish(d *soundDecode) {
	d.buffer, d.err = s.decodeFile()
	d.done = true
}

func (s *Sound) decodeFile() (*beep.Buffer, error) {
	f, resolved, err := openPayload(s.Env(), s.dir, s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: sound '%s': %v", core.ErrBadParam, resolved, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("sound '%s': %w", resolved, err)
	}
	return buf, nil
}

// Unload waits for an in-flight decode before dropping the samples.
func (s *Sound) Unload() error {
	return s.DriveUnload(func() error {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		if s.decode != nil {
			if !s.decode.done {
				return core.ErrWait
			}
			s.decode = nil
		}
		s.Release(s.tracked)
		s.tracked = 0
		s.buffer = nil
		return nil
	})
}

// Streamed reports whether the declaration asked for streaming playback.
func (s *Sound) Streamed() bool { return s.stream }

func (s *Sound) Duration() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.durationLocked()
}

func (s *Sound) durationLocked() time.Duration {
	if s.buffer == nil {
		return 0
	}
	return s.buffer.Format().SampleRate.D(s.buffer.Len())
}

func (s *Sound) CreateInstance() *SoundInstance {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.buffer == nil || s.State() != resources.StateLoaded {
		return nil
	}
	return &SoundInstance{
		StreamSeeker: s.buffer.Streamer(0, s.buffer.Len()),
		Format:       s.buffer.Format(),
	}
}
