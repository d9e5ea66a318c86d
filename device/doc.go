// Package device binds a protocol engine to the parameter profile of a Julabo
// device family.
//
// The profiles are static tables of attribute descriptors. CF and HL
// circulators share one register map; FC coolers use another:
//
//	d, err := device.Open(ctx, "tcp://bath.lab:5050", "CF")
//	if err != nil {
//		...
//	}
//	defer d.Close()
//
//	temp, err := device.BathTemperature.Get(ctx, d.Engine())
//	err = d.Set(ctx, "set_point_1", 37.5)
//	err = d.Invoke(ctx, "start")
package device
