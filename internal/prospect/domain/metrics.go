package domain

import (
	"sort"
	"time"

	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

// Period is a named date window for performance reports.
type Period string

const (
	PeriodAll       Period = "all"
	Period7Days     Period = "7d"
	PeriodThisMonth Period = "this_month"
	Period90Days    Period = "90d"
)

// Display statuses of finished leads in the feedback timeline.
const (
	StatusConverted    = "Finalizado - Convertido"
	StatusNotConverted = "Finalizado - Não Convertido"
	StatusUnknown      = "Desconhecido"
)

// DateRange filters leads by creation time, [From, To). Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// RangeForPeriod converts a named period into a range ending at now.
func RangeForPeriod(period Period, now time.Time, loc *time.Location) (DateRange, error) {
	var from time.Time
	switch period {
	case "", PeriodAll:
		return DateRange{}, nil
	case Period7Days:
		from = StartOfDay(now, loc).AddDate(0, 0, -7)
	case Period90Days:
		from = StartOfDay(now, loc).AddDate(0, 0, -90)
	case PeriodThisMonth:
		day := StartOfDay(now, loc)
		from = day.AddDate(0, 0, 1-day.Day())
	default:
		return DateRange{}, apperr.Validation("period must be one of all, 7d, this_month, 90d")
	}
	return DateRange{From: &from}, nil
}

// StageCount is the number of leads currently in one stage.
type StageCount struct {
	StageID string
	Name    string
	Role    StageRole
	Count   int
}

// TimelineEntry is a feedback entry annotated with its lead.
type TimelineEntry struct {
	LeadID     uuid.UUID
	LeadName   string
	LeadStatus string
	Feedback
}

// Metrics is the performance projection of a set of leads.
type Metrics struct {
	TotalLeads      int
	StageCounts     []StageCount
	Converted       int
	NotConverted    int
	ConversionRate  float64
	AvgResponseTime time.Duration
	AvgClosingTime  time.Duration
	Timeline        []TimelineEntry
}

// LeadStatus returns the label a lead is shown with in reports.
func LeadStatus(p *Pipeline, lead Lead) string {
	stage, ok := p.Stage(lead.StageID)
	if !ok {
		return StatusUnknown
	}
	if stage.Role == RoleTerminal {
		switch lead.Outcome {
		case OutcomeConverted:
			return StatusConverted
		case OutcomeNotConverted:
			return StatusNotConverted
		}
	}
	return stage.Name
}

// ComputeMetrics derives funnel and timing figures from leads created inside r.
func ComputeMetrics(p *Pipeline, leads []Lead, r DateRange) Metrics {
	var m Metrics
	counts := make(map[string]int)

	var responseSum, closingSum time.Duration
	var responseN, closingN int

	for _, l := range leads {
		if !r.Contains(l.CreatedAt) {
			continue
		}
		m.TotalLeads++
		counts[l.StageID]++

		stage, known := p.Stage(l.StageID)
		terminal := known && stage.Role == RoleTerminal

		if terminal {
			switch l.Outcome {
			case OutcomeConverted:
				m.Converted++
			case OutcomeNotConverted:
				m.NotConverted++
			}
		}

		if l.ProspectedAt != nil {
			if d := l.ProspectedAt.Sub(l.CreatedAt); d >= 0 {
				responseSum += d
				responseN++
			}
		}
		if terminal && l.ProspectedAt != nil && l.LastFeedbackAt != nil {
			if d := l.LastFeedbackAt.Sub(*l.ProspectedAt); d >= 0 {
				closingSum += d
				closingN++
			}
		}

		status := LeadStatus(p, l)
		for _, f := range l.Feedback {
			m.Timeline = append(m.Timeline, TimelineEntry{
				LeadID:     l.ID,
				LeadName:   l.Name,
				LeadStatus: status,
				Feedback:   f,
			})
		}
	}

	for _, s := range p.Stages() {
		m.StageCounts = append(m.StageCounts, StageCount{StageID: s.ID, Name: s.Name, Role: s.Role, Count: counts[s.ID]})
	}

	if finalized := m.Converted + m.NotConverted; finalized > 0 {
		m.ConversionRate = float64(m.Converted) / float64(finalized) * 100
	}
	if responseN > 0 {
		m.AvgResponseTime = responseSum / time.Duration(responseN)
	}
	if closingN > 0 {
		m.AvgClosingTime = closingSum / time.Duration(closingN)
	}

	sort.SliceStable(m.Timeline, func(i, j int) bool {
		return m.Timeline[i].CreatedAt.After(m.Timeline[j].CreatedAt)
	})
	if m.Timeline == nil {
		m.Timeline = []TimelineEntry{}
	}
	return m
}
