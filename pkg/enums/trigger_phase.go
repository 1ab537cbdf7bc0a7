package enums

// TriggerPhase is the document lifecycle event passed to the apply hook.
type TriggerPhase string

const (
	TriggerPhaseValidate TriggerPhase = "validate"
	TriggerPhaseOnSubmit TriggerPhase = "on_submit"
	TriggerPhaseOnCancel TriggerPhase = "on_cancel"
)

// String implements fmt.Stringer.
func (p TriggerPhase) String() string {
	return string(p)
}

// AppliesSchemes reports whether schemes are evaluated in this phase.
func (p TriggerPhase) AppliesSchemes() bool {
	return p == TriggerPhaseOnSubmit
}
