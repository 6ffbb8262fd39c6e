package http

import "github.com/couchcryptid/landslide-risk-service/internal/domain"

type zoneStatus struct {
	Zone      string           `json:"zone"`
	Risk      domain.RiskLevel `json:"risk"`
	Severity  int              `json:"severity"`
	Action    string           `json:"action"`
	Authority string           `json:"authority"`
}

type dashboardResponse struct {
	Title      string                      `json:"title"`
	Zones      []zoneStatus                `json:"zones"`
	Actions    []string                    `json:"actions"`
	Advisories map[domain.RiskLevel]string `json:"advisories"`
	Notice     string                      `json:"notice"`
}

// dashboard is the static operator overview. Zone severities are fixed
// figures, not live model output.
var dashboard = dashboardResponse{
	Title: "Landslide Risk by Zone",
	Zones: []zoneStatus{
		{Zone: "Hill Slope A", Risk: domain.RiskHigh, Severity: 80, Action: "Evacuate", Authority: "District Collector"},
		{Zone: "Valley B", Risk: domain.RiskMedium, Severity: 60, Action: "Restrict Movement", Authority: "Police"},
		{Zone: "Forest C", Risk: domain.RiskMedium, Severity: 55, Action: "Monitoring", Authority: "Forest Dept"},
		{Zone: "Town D", Risk: domain.RiskLow, Severity: 30, Action: "Normal Watch", Authority: "Municipality"},
	},
	Actions: []string{
		"Slope stabilization teams deployed",
		"Heavy vehicle movement restricted",
		"Rainfall sensors activated",
		"Evacuation shelters prepared",
		"Geological survey teams alerted",
	},
	Advisories: map[domain.RiskLevel]string{
		domain.RiskHigh:   domain.RiskHigh.Advisory(),
		domain.RiskMedium: domain.RiskMedium.Advisory(),
		domain.RiskLow:    domain.RiskLow.Advisory(),
	},
	Notice: "System continuously monitors rainfall, slope stability, and seismic activity",
}
