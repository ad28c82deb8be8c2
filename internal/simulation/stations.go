package simulation

import (
	"github.com/mmiiot/factoryline-core/internal/infrastructure/config"
)

// runBufferSeconds is the fixed safety margin added to a product's total
// pipeline duration when scheduling a run horizon.
const runBufferSeconds = 5.0

// StationTimes holds the per-stage durations of the labeling line, in
// seconds. Values are read-only after construction; negative or missing
// durations are treated as zero-length stages.
type StationTimes struct {
	BeltToScanner    float64
	ScanTime         float64
	BeltToStop       float64
	JackUp           float64
	MBIQuery         float64
	FeederTime       float64
	RobotPick        float64
	RobotToLocCam    float64
	LocatingTime     float64
	RobotToDevice    float64
	LabelingTime     float64
	JackDown         float64
	BeltToInspection float64
	QCTime           float64
}

// DefaultStationTimes returns the line's nominal stage durations.
func DefaultStationTimes() StationTimes {
	return StationTimes{
		BeltToScanner:    2.0,
		ScanTime:         1.0,
		BeltToStop:       1.5,
		JackUp:           0.5,
		MBIQuery:         0.5,
		FeederTime:       0.8,
		RobotPick:        1.0,
		RobotToLocCam:    0.6,
		LocatingTime:     0.4,
		RobotToDevice:    0.7,
		LabelingTime:     1.2,
		JackDown:         0.5,
		BeltToInspection: 1.8,
		QCTime:           0.8,
	}
}

// StationTimesFromConfig builds station times from the configuration
// section, clamping negative values to zero.
func StationTimesFromConfig(cfg config.StationTimesConfig) StationTimes {
	return StationTimes{
		BeltToScanner:    clampDuration(cfg.BeltToScanner),
		ScanTime:         clampDuration(cfg.ScanTime),
		BeltToStop:       clampDuration(cfg.BeltToStop),
		JackUp:           clampDuration(cfg.JackUp),
		MBIQuery:         clampDuration(cfg.MBIQuery),
		FeederTime:       clampDuration(cfg.FeederTime),
		RobotPick:        clampDuration(cfg.RobotPick),
		RobotToLocCam:    clampDuration(cfg.RobotToLocCam),
		LocatingTime:     clampDuration(cfg.LocatingTime),
		RobotToDevice:    clampDuration(cfg.RobotToDevice),
		LabelingTime:     clampDuration(cfg.LabelingTime),
		JackDown:         clampDuration(cfg.JackDown),
		BeltToInspection: clampDuration(cfg.BeltToInspection),
		QCTime:           clampDuration(cfg.QCTime),
	}
}

// TotalDuration returns the simulated seconds one product spends in the
// pipeline with the given label count, plus the fixed run buffer. The six
// labeling stages repeat once per label; label counts below 1 are raised
// to 1.
func (s StationTimes) TotalDuration(labels int) float64 {
	if labels < 1 {
		labels = 1
	}

	labelCycle := clampDuration(s.FeederTime) +
		clampDuration(s.RobotPick) +
		clampDuration(s.RobotToLocCam) +
		clampDuration(s.LocatingTime) +
		clampDuration(s.RobotToDevice) +
		clampDuration(s.LabelingTime)

	return clampDuration(s.BeltToScanner) +
		clampDuration(s.ScanTime) +
		clampDuration(s.BeltToStop) +
		clampDuration(s.JackUp) +
		clampDuration(s.MBIQuery) +
		float64(labels)*labelCycle +
		clampDuration(s.JackDown) +
		clampDuration(s.BeltToInspection) +
		clampDuration(s.QCTime) +
		runBufferSeconds
}

// clampDuration treats negative durations as zero-length stages.
// Deliberate leniency: a misconfigured stage keeps the demo running
// rather than raising.
func clampDuration(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
