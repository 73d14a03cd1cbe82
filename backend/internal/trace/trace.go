// Package trace loads scripted controller input from YAML and replays it,
// either paced in real time or as a fast check of the emitted commands.
package trace

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/soar/vrinput/backend/internal/controller"
	"github.com/soar/vrinput/backend/internal/vrmath"
	"gopkg.in/yaml.v3"
)

// DefaultFrameInterval is one frame at the headset's 72Hz refresh rate.
const DefaultFrameInterval = time.Second / 72

var (
	ErrNoFrames = errors.New("trace has no frames")
	// ErrUnknownButton is the controller error, re-exported for callers that
	// only deal with traces.
	ErrUnknownButton = controller.ErrUnknownButton
)

// Step is one resolved frame and the console lines it must produce.
type Step struct {
	Frame controller.Frame
	// Offset is the time since the start of the trace.
	Offset time.Duration
	// Expect is nil when the step is not checked. An empty, non-nil slice
	// means the step must produce nothing.
	Expect []string
}

// Checked reports whether the step carries an expectation.
func (s Step) Checked() bool {
	return s.Expect != nil
}

// Trace is a parsed controller recording with every frame resolved.
type Trace struct {
	Name          string
	FrameInterval time.Duration
	Cvars         map[string]string
	Steps         []Step
}

// Frames returns the resolved frames in order.
func (t *Trace) Frames() []controller.Frame {
	out := make([]controller.Frame, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = s.Frame
	}
	return out
}

// Duration is the offset of the last step plus one frame.
func (t *Trace) Duration() time.Duration {
	if len(t.Steps) == 0 {
		return 0
	}
	return t.Steps[len(t.Steps)-1].Offset + t.FrameInterval
}

type remoteDoc struct {
	Buttons     *[]string `yaml:"buttons"`
	Joystick    []float64 `yaml:"joystick"`
	Position    []float64 `yaml:"position"`
	Orientation []float64 `yaml:"orientation"`
	Velocity    []float64 `yaml:"velocity"`
	Untracked   *bool     `yaml:"untracked"`
}

type hmdDoc struct {
	Position []float64 `yaml:"position"`
	Pitch    *float64  `yaml:"pitch"`
	Yaw      *float64  `yaml:"yaw"`
	Roll     *float64  `yaml:"roll"`
}

type frameDoc struct {
	At            *time.Duration `yaml:"at"`
	Left          *remoteDoc     `yaml:"left"`
	Right         *remoteDoc     `yaml:"right"`
	HMD           *hmdDoc        `yaml:"hmd"`
	ViewYaw       *float64       `yaml:"view_yaw"`
	PositionDelta []float64      `yaml:"position_delta"`
	Multiplayer   *bool          `yaml:"multiplayer"`
	InMenu        *bool          `yaml:"in_menu"`
	Crouching     *bool          `yaml:"crouching"`
	Expect        *[]string      `yaml:"expect"`
	Repeat        int            `yaml:"repeat"`
}

type document struct {
	Name          string         `yaml:"name"`
	FrameInterval time.Duration  `yaml:"frame_interval"`
	Cvars         map[string]any `yaml:"cvars"`
	Frames        []frameDoc     `yaml:"frames"`
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer f.Close()

	tr, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "trace %s", path)
	}
	return tr, nil
}

// Parse decodes a trace document and resolves every frame. Frame fields that
// are not given keep the value of the previous frame.
func Parse(r io.Reader) (*Trace, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoFrames
		}
		return nil, errors.Wrap(err, "decode trace")
	}
	if len(doc.Frames) == 0 {
		return nil, ErrNoFrames
	}

	tr := &Trace{
		Name:          doc.Name,
		FrameInterval: doc.FrameInterval,
		Cvars:         make(map[string]string, len(doc.Cvars)),
	}
	if tr.FrameInterval <= 0 {
		tr.FrameInterval = DefaultFrameInterval
	}
	for k, v := range doc.Cvars {
		tr.Cvars[k] = fmt.Sprint(v)
	}

	start := time.Unix(0, 0).UTC()
	cur := controller.EmulatedFrame(start)
	offset := -tr.FrameInterval

	for i, fd := range doc.Frames {
		if err := fd.apply(&cur); err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}

		if fd.At != nil {
			if *fd.At <= offset {
				return nil, errors.Errorf("frame %d: at %s is not after the previous frame", i, *fd.At)
			}
			offset = *fd.At
		} else {
			offset += tr.FrameInterval
		}

		var expect []string
		if fd.Expect != nil {
			expect = append([]string{}, *fd.Expect...)
		}

		n := fd.Repeat
		if n < 1 {
			n = 1
		}
		for j := 0; j < n; j++ {
			if j > 0 {
				offset += tr.FrameInterval
				// Copies of a checked frame must be quiet.
				if expect != nil {
					expect = []string{}
				}
			}
			cur.Time = start.Add(offset)
			tr.Steps = append(tr.Steps, Step{Frame: cur, Offset: offset, Expect: expect})
		}
	}

	return tr, nil
}

func (fd *frameDoc) apply(f *controller.Frame) error {
	if err := fd.Left.apply(&f.Left, &f.LeftPose); err != nil {
		return errors.Wrap(err, "left")
	}
	if err := fd.Right.apply(&f.Right, &f.RightPose); err != nil {
		return errors.Wrap(err, "right")
	}
	if h := fd.HMD; h != nil {
		if h.Position != nil {
			v, err := vec3(h.Position)
			if err != nil {
				return errors.Wrap(err, "hmd position")
			}
			f.HMDPosition = v
		}
		setFloat(&f.HMDAngles[vrmath.Pitch], h.Pitch)
		setFloat(&f.HMDAngles[vrmath.Yaw], h.Yaw)
		setFloat(&f.HMDAngles[vrmath.Roll], h.Roll)
	}
	setFloat(&f.ViewYaw, fd.ViewYaw)
	if fd.PositionDelta != nil {
		v, err := vec3(fd.PositionDelta)
		if err != nil {
			return errors.Wrap(err, "position_delta")
		}
		f.PositionDelta = v
	}
	setBool(&f.Multiplayer, fd.Multiplayer)
	setBool(&f.InMenu, fd.InMenu)
	setBool(&f.Crouching, fd.Crouching)
	return nil
}

func (rd *remoteDoc) apply(s *controller.RemoteState, t *controller.Tracking) error {
	if rd == nil {
		return nil
	}
	if rd.Buttons != nil {
		b, err := controller.ParseButtons(*rd.Buttons)
		if err != nil {
			return err
		}
		s.Buttons = b
	}
	if rd.Joystick != nil {
		if len(rd.Joystick) != 2 {
			return errors.Errorf("joystick needs 2 values, got %d", len(rd.Joystick))
		}
		s.Joystick = mgl64.Vec2{rd.Joystick[0], rd.Joystick[1]}
	}
	if rd.Position != nil {
		v, err := vec3(rd.Position)
		if err != nil {
			return errors.Wrap(err, "position")
		}
		t.Position = v
	}
	if rd.Velocity != nil {
		v, err := vec3(rd.Velocity)
		if err != nil {
			return errors.Wrap(err, "velocity")
		}
		t.LinearVelocity = v
	}
	if rd.Orientation != nil {
		if len(rd.Orientation) != 4 {
			return errors.Errorf("orientation needs 4 values (w x y z), got %d", len(rd.Orientation))
		}
		o := rd.Orientation
		t.Orientation = mgl64.Quat{W: o[0], V: mgl64.Vec3{o[1], o[2], o[3]}}.Normalize()
	}
	if rd.Untracked != nil {
		t.Status = controller.FullyTracked
		if *rd.Untracked {
			t.Status = controller.OrientationTracked | controller.OrientationValid
		}
	}
	return nil
}

func vec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, errors.Errorf("need 3 values, got %d", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
