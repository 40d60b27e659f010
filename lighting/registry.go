package lighting

// Registry holds the active lights in registration order.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	lights []*Light
}

// Register adds the given light. It returns false if the light is already
// registered.
func (r *Registry) Register(l *Light) bool {
	if r.indexOf(l) >= 0 {
		return false
	}

	r.lights = append(r.lights, l)
	instrumentRegisterLight()
	return true
}

// Unregister removes the given light. It returns false if the light was not
// registered.
func (r *Registry) Unregister(l *Light) bool {
	i := r.indexOf(l)
	if i < 0 {
		return false
	}

	r.lights = append(r.lights[:i], r.lights[i+1:]...)
	instrumentUnregisterLight()
	return true
}

// ByID returns the registered light with the given id.
func (r *Registry) ByID(id uint32) (*Light, bool) {
	for _, l := range r.lights {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// Lights returns the registered lights in registration order.
func (r *Registry) Lights() []*Light {
	lights := make([]*Light, len(r.lights))
	copy(lights, r.lights)
	return lights
}

func (r *Registry) Len() int {
	return len(r.lights)
}

func (r *Registry) indexOf(l *Light) int {
	for i, registered := range r.lights {
		if registered == l {
			return i
		}
	}
	return -1
}
