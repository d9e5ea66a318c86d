package simulator

import (
	"bytes"
	"fmt"
	"maps"
	"strings"

	"github.com/arloliu/go-julabo/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// Class names a simulated device family.
type Class string

const (
	JulaboCF Class = "JulaboCF"
	JulaboHL Class = "JulaboHL"
)

// ParseClass resolves a class name case-insensitively; "CF" and "HL" are accepted too.
func ParseClass(s string) (Class, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JULABOCF", "CF":
		return JulaboCF, nil
	case "JULABOHL", "HL":
		return JulaboHL, nil
	}

	return "", fmt.Errorf("julabo: unknown simulator class %q", s)
}

var circulatorRegisters = map[string]string{
	"MODE_01": "0",
	"MODE_02": "0",
	"MODE_03": "0",
	"MODE_04": "0",
	"MODE_05": "0",
	"MODE_08": "0",
	"SP_00":   "30",
	"SP_01":   "31",
	"SP_02":   "32",
	"SP_03":   "300.01",
	"SP_04":   "2.34",
	"SP_05":   "22.22",
	"SP_06":   "00.00",
	"SP_07":   "1",
	"SP_08":   "99",
	"PAR_00":  "00.00",
	"PAR_01":  "123",
	"PAR_02":  "22",
	"PAR_03":  "321",
	"PAR_04":  "0.0",
	"PAR_05":  "11",
	"PAR_06":  "00.0",
	"PAR_07":  "0",
	"PAR_08":  "0",
	"PAR_09":  "0",
	"PAR_10":  "0",
	"PAR_11":  "0",
	"PAR_12":  "0",
	"PAR_13":  "0",
	"PAR_14":  "0",
	"PAR_15":  "0",
	"PAR_16":  "0",
	"HIL_00":  "-5",
	"HIL_01":  "15",
	"VERSION": "JULABO CRYOCOMPACT CF31 VERSION 5.0",
	"STATUS":  "00 MANUAL START",
	"PV_00":   "29.45",
	"PV_01":   "3",
	"PV_02":   "28.22",
	"PV_03":   "29.69",
	"PV_04":   "34.44",
}

// DefaultRegisters returns a fresh copy of the power-on register table of class.
func DefaultRegisters(class Class) map[string]string {
	regs := maps.Clone(circulatorRegisters)
	if class == JulaboHL {
		regs["VERSION"] = "JULABO HIGHTECH FL HL/SL VERSION 1.0"
	}

	return regs
}

const (
	statusRemoteStart = "03 REMOTE START"
	statusRemoteStop  = "02 REMOTE STOP"
)

// Bath is one simulated device. It is safe for concurrent use by several
// connections.
type Bath struct {
	name   string
	class  Class
	regs   *xsync.MapOf[string, string]
	noise  bool
	logger logger.Logger
}

// NewBath creates a bath of class with its default registers.
func NewBath(name string, class Class, opts ...Option) (*Bath, error) {
	if class != JulaboCF && class != JulaboHL {
		return nil, fmt.Errorf("julabo: unknown simulator class %q", class)
	}

	cfg := &config{logger: logger.GetLogger()}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	b := &Bath{
		name:   name,
		class:  class,
		regs:   xsync.NewMapOf[string, string](),
		noise:  cfg.noise,
		logger: cfg.logger.With("bath", name),
	}
	for k, v := range DefaultRegisters(class) {
		b.regs.Store(k, v)
	}
	for k, v := range cfg.registers {
		b.regs.Store(strings.ToUpper(k), v)
	}

	return b, nil
}

// Name returns the bath name.
func (b *Bath) Name() string { return b.name }

// Class returns the device family.
func (b *Bath) Class() Class { return b.class }

// Register returns the raw value of a register.
func (b *Bath) Register(name string) (string, bool) {
	return b.regs.Load(strings.ToUpper(name))
}

// SetRegister overwrites a register, e.g. to move the bath temperature in a test.
func (b *Bath) SetRegister(name, value string) {
	b.regs.Store(strings.ToUpper(name), value)
}

// HandleLine processes one request line, with or without its CR terminator,
// and returns the reply including CRLF. Writes and unknown registers return nil.
func (b *Bath) HandleLine(line []byte) []byte {
	b.logger.Debug("request", "data", string(line))

	req := strings.ToUpper(strings.TrimSpace(string(line)))

	var (
		value string
		ok    bool
	)

	switch {
	case req == "":
		return nil
	case req == "VERSION" || req == "STATUS":
		value, ok = b.regs.Load(req)
	case strings.HasPrefix(req, "IN_"):
		value, ok = b.regs.Load(req[3:])
	case strings.HasPrefix(req, "OUT_"):
		b.store(req)
		return nil
	}

	if !ok {
		b.logger.Warn("no reply", "request", req)
		return nil
	}

	reply := b.frame(value)
	b.logger.Debug("reply", "data", string(reply))

	return reply
}

func (b *Bath) store(req string) {
	cmd, value, found := strings.Cut(req, " ")
	if !found {
		b.logger.Warn("write without value", "request", req)
		return
	}

	value = strings.TrimSpace(value)
	b.regs.Store(cmd[len("OUT_"):], value)

	if cmd == "OUT_MODE_05" {
		status := statusRemoteStart
		if value == "0" {
			status = statusRemoteStop
		}
		b.regs.Store("STATUS", status)
	}
}

func (b *Bath) frame(value string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(value) + 4)

	if b.noise && len(value) > 0 {
		// the engine must strip flow-control bytes wherever they land
		buf.WriteByte(0x11)
		buf.WriteString(value[:1])
		buf.WriteByte(0x13)
		buf.WriteString(value[1:])
	} else {
		buf.WriteString(value)
	}
	buf.WriteString("\r\n")

	return buf.Bytes()
}
