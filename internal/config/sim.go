package config

// Sim holds the tunables the simulation reads every tick.
type Sim struct {
	AltitudeSpeed *Var
	TimeScale     *Var
	LineCapacity  *Var
	LandingTime   *Var
	TakeoffTime   *Var
	SafetyRange   *Var
	TaxiCapacity  *Var
	TaxiDuration  *Var
	PrintRange    *Var
	GateCapacity  *Var
	Debug         *Var
}

// RegisterSim registers the simulation tunables with their defaults.
func RegisterSim(t *Tunables) *Sim {
	return &Sim{
		AltitudeSpeed: t.Float("aircraft_altitude_speed", "Rate at which an aircraft without fuel loses altitude (m/s).", 100, AtLeast(0.001)),
		TimeScale:     t.Float("timescale", "Simulation speed multiplier.", 1, Range(0.25, 10)),
		LineCapacity:  t.Int("rw_line_capacity", "Aircraft allowed to wait lined up for takeoff.", 1, AtLeast(1)),
		LandingTime:   t.Float("rw_landing_time", "Time an aircraft occupies the runway when landing (s).", 2, AtLeast(0)),
		TakeoffTime:   t.Float("rw_takingoff_time", "Time an aircraft occupies the runway when taking off (s).", 2, AtLeast(0)),
		SafetyRange:   t.Float("rw_safety_range_threshold", "Range below which an airborne aircraft lands first (s).", 3),
		TaxiCapacity:  t.Int("tw_capacity", "Aircraft allowed on the taxiway at once.", 1, AtLeast(1)),
		TaxiDuration:  t.Float("tw_duration", "Time needed to cross the taxiway (s).", 2, AtLeast(0)),
		PrintRange:    t.Float("simulation_print_range", "Minimum wall time between status prints (s).", 1, AtLeast(0)),
		GateCapacity:  t.Int("gate_capacity", "Gates shown in the status header.", 5, AtLeast(0)),
		Debug:         t.Int("debug", "Show output of executed command files.", 0, Range(0, 1)),
	}
}
