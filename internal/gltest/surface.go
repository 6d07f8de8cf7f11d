package gltest

import "github.com/kjkrol/glroom/pkg/gfx"

// Surface opens a fresh Device on every Open, the way a browser hands out a
// new context after a restore.
type Surface struct {
	W, H int
	// Err makes Open fail.
	Err error
	// Configure adjusts each device before it is returned.
	Configure func(*Device)

	Attrs   gfx.Attributes
	Devices []*Device
}

func NewSurface(w, h int) *Surface {
	return &Surface{W: w, H: h}
}

func (s *Surface) Open(attrs gfx.Attributes) (gfx.Device, error) {
	s.Attrs = attrs
	if s.Err != nil {
		return nil, s.Err
	}
	d := NewDevice()
	if s.Configure != nil {
		s.Configure(d)
	}
	s.Devices = append(s.Devices, d)
	return d, nil
}

func (s *Surface) Size() (int, int) { return s.W, s.H }

// Last returns the most recently opened device, or nil.
func (s *Surface) Last() *Device {
	if len(s.Devices) == 0 {
		return nil
	}
	return s.Devices[len(s.Devices)-1]
}
