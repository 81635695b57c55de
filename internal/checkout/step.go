package checkout

import "encoding/json"

type Step int

const (
	StepLogin Step = iota
	StepIdentity
	StepAddress
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepLogin:
		return "login"
	case StepIdentity:
		return "identity"
	case StepAddress:
		return "address"
	case StepPayment:
		return "payment"
	default:
		return "unknown"
	}
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
