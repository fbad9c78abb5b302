package hub

import "errors"

// CommandObserver is told the outcome of every hub command.
type CommandObserver func(cmd Command, err error)

// Instrument wraps t so that each command is reported to observe.
// Open, Close and Probe are passed through unobserved.
func Instrument(t Transport, observe CommandObserver) Transport {
	if observe == nil {
		return t
	}
	return &instrumented{Transport: t, observe: observe}
}

type instrumented struct {
	Transport
	observe CommandObserver
}

func (i *instrumented) Ping() error {
	err := i.Transport.Ping()
	i.observe(CmdPing, err)
	return err
}

func (i *instrumented) ReadSensor(id SensorID) (float32, error) {
	v, err := i.Transport.ReadSensor(id)
	i.observe(CmdReadSensor, err)
	return v, err
}

func (i *instrumented) ScanSensors() (byte, error) {
	b, err := i.Transport.ScanSensors()
	i.observe(CmdScanSensors, err)
	return b, err
}

func (i *instrumented) GetStatus() ([StatusLength]byte, error) {
	s, err := i.Transport.GetStatus()
	i.observe(CmdGetStatus, err)
	return s, err
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
