package device

import "github.com/arloliu/go-julabo/attr"

// SelfTuning selects when the controller identifies the bath.
type SelfTuning int

const (
	SelfTuningOff SelfTuning = iota
	SelfTuningOnce
	SelfTuningAlways
)

// SelfTuningEnum encodes SelfTuning on the wire.
var SelfTuningEnum = attr.NewEnumeration("SelfTuning",
	attr.Variant[SelfTuning]{Name: "Off", Value: SelfTuningOff},
	attr.Variant[SelfTuning]{Name: "Once", Value: SelfTuningOnce},
	attr.Variant[SelfTuning]{Name: "Always", Value: SelfTuningAlways},
)

func (v SelfTuning) String() string { return SelfTuningEnum.String(v) }

// ExternalInput is the type of signal on the external programmer input.
type ExternalInput int

const (
	ExternalInputVoltage ExternalInput = iota
	ExternalInputCurrent
)

// ExternalInputEnum encodes ExternalInput on the wire.
var ExternalInputEnum = attr.NewEnumeration("ExternalInput",
	attr.Variant[ExternalInput]{Name: "Voltage", Value: ExternalInputVoltage},
	attr.Variant[ExternalInput]{Name: "Current", Value: ExternalInputCurrent},
)

func (v ExternalInput) String() string { return ExternalInputEnum.String(v) }

// TemperatureControl selects the sensor the controller regulates on.
type TemperatureControl int

const (
	// TemperatureControlInternal regulates on the bath sensor.
	TemperatureControlInternal TemperatureControl = iota
	// TemperatureControlExternal regulates on an external Pt100.
	TemperatureControlExternal
)

// TemperatureControlEnum encodes TemperatureControl on the wire.
var TemperatureControlEnum = attr.NewEnumeration("TemperatureControl",
	attr.Variant[TemperatureControl]{Name: "Internal", Value: TemperatureControlInternal},
	attr.Variant[TemperatureControl]{Name: "External", Value: TemperatureControlExternal},
)

func (v TemperatureControl) String() string { return TemperatureControlEnum.String(v) }

// ControlMode of a cooler.
type ControlMode int

const (
	ControlModeRemote ControlMode = iota
	ControlModeLocal
)

// ControlModeEnum encodes ControlMode on the wire.
var ControlModeEnum = attr.NewEnumeration("ControlMode",
	attr.Variant[ControlMode]{Name: "Remote", Value: ControlModeRemote},
	attr.Variant[ControlMode]{Name: "Local", Value: ControlModeLocal},
)

func (v ControlMode) String() string { return ControlModeEnum.String(v) }

// ControlDynamics is the approach to the set point.
type ControlDynamics int

const (
	ControlDynamicsAperiodic ControlDynamics = iota
	ControlDynamicsStandard
)

// ControlDynamicsEnum encodes ControlDynamics on the wire.
var ControlDynamicsEnum = attr.NewEnumeration("ControlDynamics",
	attr.Variant[ControlDynamics]{Name: "Aperiodic", Value: ControlDynamicsAperiodic},
	attr.Variant[ControlDynamics]{Name: "Standard", Value: ControlDynamicsStandard},
)

func (v ControlDynamics) String() string { return ControlDynamicsEnum.String(v) }
