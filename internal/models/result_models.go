package models

import "time"

type TradeGrade struct {
	Letter      string          `json:"letter"`
	Score       float64         `json:"score"`
	Fairness    Fairness        `json:"fairness"`
	TeamImpacts []TeamImpact    `json:"teamImpacts"`
	Rationale   []RationaleItem `json:"rationale"`
	RiskTags    []string        `json:"riskTags"`
}

type Fairness struct {
	DeltaPercent  float64 `json:"deltaPercent"`
	TowardsTeamID string  `json:"towardsTeamId"`
	Explanation   string  `json:"explanation"`
}

// IsFair reports whether the value gap is below the 10% balance threshold.
func (f Fairness) IsFair() bool {
	return f.DeltaPercent < 10
}

type TeamImpact struct {
	TeamID       string  `json:"teamId"`
	DeltaValue   float64 `json:"deltaValue"`
	DeltaPercent float64 `json:"deltaPercent"`
}

type RationaleItem struct {
	Factor string  `json:"factor"`
	Text   string  `json:"text"`
	Impact float64 `json:"impact"`
}

type SimulationResult struct {
	Iterations   int                      `json:"iterations"`
	DeltasByTeam map[string]TeamOddsDelta `json:"deltasByTeam"`
	Notes        []string                 `json:"notes"`
}

type TeamOddsDelta struct {
	PlayoffDelta float64 `json:"playoffDelta"`
	TitleDelta   float64 `json:"titleDelta"`
}

type CounterOfferSet struct {
	Suggestions []CounterOffer `json:"suggestions"`
}

type CounterOffer struct {
	Trade    *Trade       `json:"trade,omitempty"`
	Grade    GradeSummary `json:"grade"`
	Fairness Fairness     `json:"fairness"`
	Notes    []string     `json:"notes,omitempty"`
}

type GradeSummary struct {
	Letter string  `json:"letter"`
	Score  float64 `json:"score"`
}

type InjuryNotes struct {
	Notes []InjuryNote `json:"notes"`
}

type InjuryNote struct {
	PlayerID  string    `json:"playerId"`
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

type Activation struct {
	Token   string `json:"token,omitempty"`
	Tier    Tier   `json:"tier,omitempty"`
	Message string `json:"message,omitempty"`
}

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)
