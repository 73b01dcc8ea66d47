package twobody

// Verlet is velocity Verlet for states laid out as [positions..., velocities...].
type Verlet struct {
	scratch State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(State, n)
	}

	out := make(State, n)
	dx := sys.Derive(x, t)
	dt2 := dt * dt
	for i := range half {
		out[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
		v.scratch[i] = out[i]
		v.scratch[half+i] = x[half+i]
	}

	dxNew := sys.Derive(v.scratch, t+dt)
	halfDt := 0.5 * dt
	for i := range half {
		out[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}
	return out
}

// Leapfrog is the kick-drift-kick form.
type Leapfrog struct {
	scratch State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(sys System, x State, t, dt float64) State {
	n := len(x)
	half := n / 2
	if len(l.scratch) != n {
		l.scratch = make(State, n)
	}

	out := make(State, n)
	dx := sys.Derive(x, t)
	halfDt := 0.5 * dt

	for i := range half {
		l.scratch[half+i] = x[half+i] + dx[half+i]*halfDt
	}
	for i := range half {
		out[i] = x[i] + l.scratch[half+i]*dt
		l.scratch[i] = out[i]
	}

	dxNew := sys.Derive(l.scratch, t+dt)
	for i := range half {
		out[half+i] = l.scratch[half+i] + dxNew[half+i]*halfDt
	}
	return out
}
