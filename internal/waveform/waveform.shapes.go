// FilePath: server/monitor/internal/waveform/waveform.shapes.go
package waveform

import "math"

const (
	// HeartRate drives both the ECG and the pleth pulse, in beats per minute.
	HeartRate = 75.0
	// BreathRate drives the hub's derived respiratory signal, in breaths per minute.
	BreathRate = 14.0

	beatInterval   = 60.0 / HeartRate
	breathInterval = 60.0 / BreathRate

	ecgBaseline = 0.5
	ecgGain     = 0.4

	spo2Base      = 97.5
	spo2Amplitude = 1.0
	spo2Freq      = 0.02

	respAmplitude = 0.6
	respFreq      = 0.3

	bpSystolicBase  = 120.0
	bpDiastolicBase = 80.0
	bpDrift         = 5.0
	bpFreq          = 0.02

	tempCoreBase = 37.2
	tempSkinBase = 36.8
	tempDrift    = 0.2
	tempFreq     = 0.01
)

func sinHz(freq, t float64) float64 {
	return math.Sin(2 * math.Pi * freq * t)
}

// phase returns the position of t inside a repeating interval, in [0,1).
func phase(t, interval float64) float64 {
	p := math.Mod(t, interval) / interval
	if p < 0 {
		p++
	}
	return p
}

// ecgBeat is the raw lead shape for one beat, roughly in [-0.1, 1.1].
func ecgBeat(p float64) float64 {
	switch {
	case p < 0.15: // P wave
		pp := p / 0.15
		return 0.15 * math.Exp(-8*(pp-0.5)*(pp-0.5))
	case p < 0.20: // PR segment
		return 0
	case p < 0.30: // QRS complex
		q := (p - 0.20) / 0.10
		switch {
		case q < 0.2:
			return -0.1 * (q / 0.2)
		case q < 0.6:
			r := (q - 0.2) / 0.4
			x := (r - 0.5) * 6
			return -0.1 + 1.2*math.Exp(-x*x)
		default:
			s := (q - 0.6) / 0.4
			return -0.08 * (1 - s)
		}
	case p < 0.40: // ST segment
		return 0
	case p < 0.70: // T wave
		tp := (p - 0.40) / 0.30
		return 0.3 * math.Exp(-8*(tp-0.5)*(tp-0.5))
	}
	return 0
}

// ECG is the display-scaled synthetic lead at time t.
func ECG(t float64) float64 {
	return ecgBaseline + ecgBeat(phase(t, beatInterval))*ecgGain
}

// ProbeECG is the lead as rendered by the hub's own simulator. The P wave is
// narrower and the S wave is a dip rather than a ramp.
func ProbeECG(t float64) float64 {
	p := phase(t, beatInterval)
	var v float64
	switch {
	case p < 0.1:
		pp := p / 0.1
		v = 0.15 * math.Exp(-50*(pp-0.5)*(pp-0.5))
	case p < 0.2:
	case p < 0.3:
		q := (p - 0.2) / 0.1
		switch {
		case q < 0.2:
			v = -0.1 * (q / 0.2)
		case q < 0.6:
			r := (q - 0.2) / 0.4
			v = math.Exp(-25 * (r - 0.5) * (r - 0.5))
		default:
			s := (q - 0.6) / 0.4
			v = -0.2 * math.Exp(-25*(s-0.3)*(s-0.3))
		}
	case p < 0.4:
	case p < 0.7:
		tp := (p - 0.4) / 0.3
		v = 0.3 * math.Exp(-8*(tp-0.5)*(tp-0.5))
	}
	return ecgBaseline + v*ecgGain
}

// SpO2 is the synthetic saturation in percent, 96.5..98.5.
func SpO2(t float64) float64 {
	return spo2Base + spo2Amplitude*sinHz(spo2Freq, t)
}

// Respiration is the chest movement trace in [-0.6, 0.6].
func Respiration(t float64) float64 {
	return respAmplitude * sinHz(respFreq, t)
}

// BreathCycle is an asymmetric breath (40% inhale, 60% exhale) with slow
// amplitude variation, in [0, 1.1].
func BreathCycle(t float64) float64 {
	p := phase(t, breathInterval)
	var v float64
	if p < 0.4 {
		v = 0.5 * (1 - math.Cos(p/0.4*math.Pi))
	} else {
		v = 0.5 * (1 + math.Cos((p-0.4)/0.6*math.Pi))
	}
	return v * (1 + 0.1*sinHz(0.05, t))
}

// Pleth is the pulse oximeter volume trace with a dicrotic notch.
func Pleth(t float64) float64 {
	p := phase(t, beatInterval)
	var v float64
	switch {
	case p < 0.3:
		u := p / 0.3
		v = u * u
	case p < 0.5:
		v = 1 - 0.15*math.Sin((p-0.3)/0.2*math.Pi)
	default:
		v = 0.85 * math.Exp(-3*(p-0.5)/0.5)
	}
	return v + 0.02*sinHz(15, t)
}

// BloodPressure returns systolic and diastolic pressure in mmHg.
// Diastolic drifts at half the systolic amplitude so the pair never crosses.
func BloodPressure(t float64) (systolic, diastolic float64) {
	d := bpDrift * sinHz(bpFreq, t)
	return bpSystolicBase + d, bpDiastolicBase + 0.5*d
}

// Temperatures returns core and skin temperature in degrees Celsius.
func Temperatures(t float64) (core, skin float64) {
	d := tempDrift * sinHz(tempFreq, t)
	return tempCoreBase + d, tempSkinBase + 0.8*d
}
