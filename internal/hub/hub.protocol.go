// FilePath: server/monitor/internal/hub/hub.protocol.go
package hub

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
)

// HubAddress is the fixed 7-bit bus address of the sensor hub.
const HubAddress uint16 = 0x08

// Command is the first byte of every request to the hub.
type Command byte

const (
	CmdPing        Command = 0x01
	CmdReadSensor  Command = 0x02
	CmdScanSensors Command = 0x03
	CmdGetStatus   Command = 0x04
)

func (c Command) String() string {
	switch c {
	case CmdPing:
		return "ping"
	case CmdReadSensor:
		return "read_sensor"
	case CmdScanSensors:
		return "scan_sensors"
	case CmdGetStatus:
		return "get_status"
	}
	return fmt.Sprintf("cmd_0x%02x", byte(c))
}

const (
	PingResponse  byte = 0xAA
	ErrorResponse byte = 0xFF

	FloatLength  = 4
	StatusLength = 5
)

// Timing of the hub firmware.
const (
	ResponseTimeout = 100 * time.Millisecond
	MaxRetries      = 3
	RetryDelay      = 100 * time.Millisecond

	PingSettle   = 5 * time.Millisecond
	ReadSettle   = 10 * time.Millisecond
	ScanSettle   = 50 * time.Millisecond
	StatusSettle = 10 * time.Millisecond
	BusReady     = 2 * time.Millisecond
)

// SensorID is the id the hub uses in READ_SENSOR requests.
type SensorID uint8

const (
	SensorIDECG         SensorID = 0
	SensorIDSpO2        SensorID = 1
	SensorIDTempCore    SensorID = 2
	SensorIDNIBP        SensorID = 3
	SensorIDRespiratory SensorID = 4
	SensorIDTempSkin    SensorID = 5
)

// Bits of the SCAN_SENSORS status byte.
const (
	StatusBitECG         byte = 1 << 0
	StatusBitSpO2        byte = 1 << 1
	StatusBitTempCore    byte = 1 << 2
	StatusBitNIBP        byte = 1 << 3
	StatusBitTempSkin    byte = 1 << 4
	StatusBitRespiratory byte = 1 << 5

	// AllSensorBits is every defined bit. It can never equal ErrorResponse.
	AllSensorBits = StatusBitECG | StatusBitSpO2 | StatusBitTempCore |
		StatusBitNIBP | StatusBitTempSkin | StatusBitRespiratory
)

var (
	sensorIDs = map[models.SensorKind]SensorID{
		models.SensorECG:         SensorIDECG,
		models.SensorSpO2:        SensorIDSpO2,
		models.SensorTempCore:    SensorIDTempCore,
		models.SensorNIBP:        SensorIDNIBP,
		models.SensorRespiratory: SensorIDRespiratory,
		models.SensorTempSkin:    SensorIDTempSkin,
	}
	statusBits = map[models.SensorKind]byte{
		models.SensorECG:         StatusBitECG,
		models.SensorSpO2:        StatusBitSpO2,
		models.SensorTempCore:    StatusBitTempCore,
		models.SensorNIBP:        StatusBitNIBP,
		models.SensorTempSkin:    StatusBitTempSkin,
		models.SensorRespiratory: StatusBitRespiratory,
	}
)

// SensorIDFor maps a kind to its hub id.
func SensorIDFor(kind models.SensorKind) (SensorID, bool) {
	id, ok := sensorIDs[kind]
	return id, ok
}

// StatusBit maps a kind to its bit in the scan status byte.
func StatusBit(kind models.SensorKind) (byte, bool) {
	b, ok := statusBits[kind]
	return b, ok
}

// DecodeStatus expands a scan status byte into per-kind attachment.
func DecodeStatus(status byte) map[models.SensorKind]bool {
	out := make(map[models.SensorKind]bool, len(statusBits))
	for kind, bit := range statusBits {
		out[kind] = status&bit != 0
	}
	return out
}

var (
	// ErrBus is returned when selecting, writing or reading the bus fails.
	ErrBus = errors.New("hub bus failure")
	// ErrProtocol is returned for answers that violate the hub protocol.
	ErrProtocol = errors.New("hub protocol violation")
	// ErrTimeout is returned when an answer arrived after the response budget.
	ErrTimeout = errors.New("hub response timeout")
	// ErrClosed is returned when the transport is used before Open or after Close.
	ErrClosed = errors.New("hub transport closed")
)

// EncodeFloat renders v as the hub sends it: IEEE-754 binary32, little-endian.
func EncodeFloat(v float32) [FloatLength]byte {
	var b [FloatLength]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b
}

// DecodeFloat is the inverse of EncodeFloat.
func DecodeFloat(b []byte) (float32, error) {
	if len(b) != FloatLength {
		return 0, fmt.Errorf("%w: float needs %d bytes, got %d", ErrProtocol, FloatLength, len(b))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}
