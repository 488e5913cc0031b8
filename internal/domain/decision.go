package domain

import "github.com/shopspring/decimal"

type DecisionKind int

const (
	DecisionNoChange DecisionKind = iota
	DecisionBaselineInitialized
	DecisionAlertTriggered
	DecisionInvalidObservation
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionNoChange:
		return "no_change"
	case DecisionBaselineInitialized:
		return "baseline_initialized"
	case DecisionAlertTriggered:
		return "alert_triggered"
	case DecisionInvalidObservation:
		return "invalid_observation"
	default:
		return "unknown"
	}
}

// Decision is the outcome of evaluating one observation against the stored
// baseline. When Kind is DecisionAlertTriggered the baseline has already been
// reset to CurrentPrice by the time the caller sees the decision.
type Decision struct {
	Kind             DecisionKind
	Symbol           string
	BaselinePrice    decimal.Decimal
	CurrentPrice     decimal.Decimal
	DeviationPercent decimal.Decimal
}
