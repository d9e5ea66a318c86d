package device

import (
	"strings"

	"github.com/arloliu/go-julabo/attr"
)

// Attributes common to every model.
var (
	Identification = attr.String("identification", "VERSION")
	Status         = attr.String("status", "STATUS")
	IsStarted      = attr.Bool("is_started", "IN_MODE_05")
	Start          = attr.Command("start", "OUT_MODE_05 1")
	Stop           = attr.Command("stop", "OUT_MODE_05 0")
)

// Circulator (CF, HL) attributes.
var (
	BathTemperature            = attr.Float2("bath_temperature", "IN_PV_00", "")
	HeatingPower               = attr.Float2("heating_power", "IN_PV_01", "")
	ExternalTemperature        = attr.Float2("external_temperature", "IN_PV_02", "")
	SafetyTemperature          = attr.Float2("safety_temperature", "IN_PV_03", "")
	ExcessTemperatureSetPoint  = attr.Float2("excess_temperature_set_point", "IN_PV_04", "")
	SetPoint1                  = attr.Float2("set_point_1", "IN_SP_00", "OUT_SP_00")
	SetPoint2                  = attr.Float2("set_point_2", "IN_SP_01", "OUT_SP_01")
	SetPoint3                  = attr.Float2("set_point_3", "IN_SP_02", "OUT_SP_02")
	HighTemperature            = attr.Float2("high_temperature", "IN_SP_03", "OUT_SP_03")
	LowTemperature             = attr.Float2("low_temperature", "IN_SP_04", "OUT_SP_04")
	ExternalProgrammerSetPoint = attr.Float2("external_programmer_set_point", "IN_SP_05", "")
	HeaterManipulatedVariable  = attr.Float2("heater_manipulated_variable", "IN_SP_06", "OUT_SP_06")
	PumpPressureStage          = attr.Int("pump_pressure_stage", "IN_SP_07", "OUT_SP_07")
	Flowrate                   = attr.Int("flowrate", "IN_SP_08", "")
	TemperatureDifference      = attr.Float2("temperature_difference", "IN_PAR_00", "")
	MaxCoolingPower            = attr.Int("max_cooling_power", "IN_HIL_00", "OUT_HIL_00")
	MaxHeatingPower            = attr.Int("max_heating_power", "IN_HIL_01", "OUT_HIL_01")

	// ActiveSetPointChannel is 1-based; the wire value is 0-based.
	ActiveSetPointChannel = attr.Must(attr.New("active_set_point_channel", "IN_MODE_01", "OUT_MODE_01", attr.Channel))

	SelfTuningMode         = attr.Enum("self_tuning", "IN_MODE_02", "OUT_MODE_02", SelfTuningEnum)
	ExternalInputMode      = attr.Enum("external_input", "IN_MODE_03", "OUT_MODE_03", ExternalInputEnum)
	TemperatureControlMode = attr.Enum("temperature_control", "IN_MODE_04", "OUT_MODE_04", TemperatureControlEnum)
	ControlDynamicsMode    = attr.Enum("control_dynamics", "IN_MODE_08", "OUT_MODE_08", ControlDynamicsEnum)
)

// Recirculating cooler (FC) attributes. The FC register map differs from the
// circulators', so names shared with them get their own descriptors here.
var (
	CoolerWorkingTemperature  = attr.Float1("working_temperature", "IN_SP_00", "OUT_SP_00")
	CoolerHighTemperature     = attr.Int("high_temperature", "IN_SP_01", "")
	CoolerLowTemperature      = attr.Int("low_temperature", "IN_SP_02", "")
	CoolerControlRatio        = attr.Int("control_ratio", "IN_SP_03", "OUT_SP_03")
	CoolerFeedTemperature     = attr.Float2("feed_temperature", "IN_PV_00", "")
	CoolerExternalTemperature = attr.Float2("external_temperature", "IN_PV_01", "")
	CoolerHeaterCapacity      = attr.Float2("heater_capacity", "IN_PV_02", "")
	CoolerReturnTemperature   = attr.Float2("return_temperature", "IN_PV_03", "")
	CoolerSafetyTemperature   = attr.Float2("safety_temperature", "IN_PV_04", "")
	CoolerControlMode         = attr.Enum("control_mode", "IN_MODE_04", "OUT_MODE_04", ControlModeEnum)
)

// Profiles.
var (
	Base = attr.MustProfile("Julabo", Identification, Status, IsStarted, Start, Stop)

	Circulator = mustExtend(Base, "JulaboCirculator",
		BathTemperature,
		HeatingPower,
		ExternalTemperature,
		SafetyTemperature,
		ExcessTemperatureSetPoint,
		SetPoint1,
		SetPoint2,
		SetPoint3,
		HighTemperature,
		LowTemperature,
		ExternalProgrammerSetPoint,
		HeaterManipulatedVariable,
		PumpPressureStage,
		Flowrate,
		TemperatureDifference,
		MaxCoolingPower,
		MaxHeatingPower,
		ActiveSetPointChannel,
		SelfTuningMode,
		ExternalInputMode,
		TemperatureControlMode,
		ControlDynamicsMode,
	)

	// CF is the cryo-compact circulator.
	CF = mustExtend(Circulator, "JulaboCF")
	// HL is the heating circulator.
	HL = mustExtend(Circulator, "JulaboHL")

	// FC is the recirculating cooler.
	FC = mustExtend(Base, "JulaboFC",
		CoolerWorkingTemperature,
		CoolerHighTemperature,
		CoolerLowTemperature,
		CoolerControlRatio,
		CoolerFeedTemperature,
		CoolerExternalTemperature,
		CoolerHeaterCapacity,
		CoolerReturnTemperature,
		CoolerSafetyTemperature,
		CoolerControlMode,
	)
)

func mustExtend(p *attr.Profile, name string, attrs ...attr.Attribute) *attr.Profile {
	out, err := p.Extend(name, attrs...)
	if err != nil {
		panic(err)
	}

	return out
}

// ProfileFor returns the profile of a model: "CF", "HL" or "FC", optionally
// prefixed with "Julabo". Case is ignored.
func ProfileFor(model string) (*attr.Profile, error) {
	m := strings.ToUpper(strings.TrimSpace(model))
	m = strings.TrimPrefix(m, "JULABO")

	switch m {
	case "CF":
		return CF, nil
	case "HL":
		return HL, nil
	case "FC":
		return FC, nil
	}

	return nil, unknownModel(model)
}

// Models lists the model names accepted by ProfileFor.
func Models() []string {
	return []string{"CF", "HL", "FC"}
}
