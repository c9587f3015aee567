// Package demo seeds a local DuckDB warehouse with deterministic
// facility-operations data matching the built-in allowlist schema.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

type Facility struct {
	ID           string
	Name         string
	Location     string
	OpeningHours string
	BayCount     int
	Region       string
}

type ErrorEvent struct {
	FacilityID   string
	FacilityName string
	Timestamp    time.Time
	Level        string
	Message      string
	MessageID    string
	DeviceID     string
}

type ConnectivityDay struct {
	FacilityID       string
	FacilityName     string
	LogDate          time.Time
	DisconnectionCnt int
	ModelStatus      string
	UptimePct        float64
}

type QualitySample struct {
	FacilityID     string
	Timestamp      time.Time
	QualityScore   float64
	MissingRecords int
	LatencyMS      float64
}

type Session struct {
	SessionID   string
	FacilityID  string
	BayID       string
	StartedAt   time.Time
	EndedAt     time.Time
	ShotCount   int
	PlayerCount int
}

type Generator struct {
	rnd        *rand.Rand
	facilities []Facility
	now        func() time.Time
}

var errorMessages = []struct {
	id      string
	message string
}{
	{"ERR-1001", "radar unit lost tracking calibration"},
	{"ERR-1002", "camera feed dropped during session"},
	{"ERR-1404", "ball data upload rejected by ingest service"},
	{"ERR-2001", "bay sensor heartbeat missed"},
	{"ERR-2300", "firmware update failed on launch monitor"},
	{"ERR-3100", "session sync timed out"},
}

var regions = []string{"us-east", "us-west", "eu-central", "apac"}

var locations = []string{"Austin", "Denver", "Hamburg", "Seoul", "Phoenix", "Manchester"}

func NewGenerator(seed int64, facilityCount int) *Generator {
	if facilityCount <= 0 {
		facilityCount = 4
	}
	g := &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
	g.facilities = make([]Facility, 0, facilityCount)
	for i := 0; i < facilityCount; i++ {
		g.facilities = append(g.facilities, Facility{
			ID:           fmt.Sprintf("fac-%03d", i+1),
			Name:         fmt.Sprintf("Range %s %d", pickOne(g.rnd, locations), i+1),
			Location:     pickOne(g.rnd, locations),
			OpeningHours: "08:00-22:00",
			BayCount:     10 + g.rnd.Intn(40),
			Region:       pickOne(g.rnd, regions),
		})
	}
	return g
}

func (g *Generator) Facilities() []Facility {
	return g.facilities
}

// ErrorEvents spreads perDay events per facility evenly over the trailing
// window so that range-bounded queries always find rows.
func (g *Generator) ErrorEvents(days, perDay int) []ErrorEvent {
	events := make([]ErrorEvent, 0, len(g.facilities)*days*perDay)
	end := g.now()
	for _, facility := range g.facilities {
		for day := 0; day < days; day++ {
			base := end.AddDate(0, 0, -day)
			for i := 0; i < perDay; i++ {
				msg := errorMessages[g.rnd.Intn(len(errorMessages))]
				events = append(events, ErrorEvent{
					FacilityID:   facility.ID,
					FacilityName: facility.Name,
					Timestamp:    base.Add(-time.Duration(g.rnd.Intn(86400)) * time.Second),
					Level:        g.pickLevel(),
					Message:      msg.message,
					MessageID:    msg.id,
					DeviceID:     fmt.Sprintf("dev-%s-%02d", facility.ID, g.rnd.Intn(facility.BayCount)+1),
				})
			}
		}
	}
	return events
}

func (g *Generator) ConnectivityDays(days int) []ConnectivityDay {
	entries := make([]ConnectivityDay, 0, len(g.facilities)*days)
	end := g.now().Truncate(24 * time.Hour)
	for _, facility := range g.facilities {
		for day := 0; day < days; day++ {
			disconnections := g.rnd.Intn(6)
			status := "healthy"
			if disconnections >= 4 {
				status = "degraded"
			}
			entries = append(entries, ConnectivityDay{
				FacilityID:       facility.ID,
				FacilityName:     facility.Name,
				LogDate:          end.AddDate(0, 0, -day),
				DisconnectionCnt: disconnections,
				ModelStatus:      status,
				UptimePct:        round2(94 + g.rnd.Float64()*6),
			})
		}
	}
	return entries
}

func (g *Generator) QualitySamples(days int) []QualitySample {
	samples := make([]QualitySample, 0, len(g.facilities)*days)
	end := g.now()
	for _, facility := range g.facilities {
		for day := 0; day < days; day++ {
			samples = append(samples, QualitySample{
				FacilityID:     facility.ID,
				Timestamp:      end.AddDate(0, 0, -day),
				QualityScore:   round2(0.85 + g.rnd.Float64()*0.15),
				MissingRecords: g.rnd.Intn(20),
				LatencyMS:      round2(40 + g.rnd.Float64()*160),
			})
		}
	}
	return samples
}

func (g *Generator) Sessions(days, perDay int) []Session {
	sessions := make([]Session, 0, len(g.facilities)*days*perDay)
	end := g.now()
	sequence := 0
	for _, facility := range g.facilities {
		for day := 0; day < days; day++ {
			for i := 0; i < perDay; i++ {
				sequence++
				start := end.AddDate(0, 0, -day).Add(-time.Duration(g.rnd.Intn(43200)) * time.Second)
				sessions = append(sessions, Session{
					SessionID:   fmt.Sprintf("sess-%08d", sequence),
					FacilityID:  facility.ID,
					BayID:       fmt.Sprintf("bay-%02d", g.rnd.Intn(facility.BayCount)+1),
					StartedAt:   start,
					EndedAt:     start.Add(time.Duration(30+g.rnd.Intn(90)) * time.Minute),
					ShotCount:   20 + g.rnd.Intn(180),
					PlayerCount: 1 + g.rnd.Intn(5),
				})
			}
		}
	}
	return sessions
}

func (g *Generator) pickLevel() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 50:
		return "INFO"
	case p < 75:
		return "WARNING"
	case p < 93:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
