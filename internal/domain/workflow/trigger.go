package workflow

// Trigger is an action requested on an order
type Trigger string

const (
	TriggerExport Trigger = "EXPORT"
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
