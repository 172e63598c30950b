package types

import "fmt"

// OperationType represents the kind of a suggested operation
type OperationType string

const (
	OperationCompleteStep OperationType = "complete_step"
	OperationAddStep      OperationType = "add_step"
	OperationAddSubStep   OperationType = "add_substep"
	OperationUpdateStep   OperationType = "update_step"
)

// AllOperationTypes returns all valid operation types
func AllOperationTypes() []OperationType {
	return []OperationType{
		OperationCompleteStep,
		OperationAddStep,
		OperationAddSubStep,
		OperationUpdateStep,
	}
}

// IsValid checks if the operation type is valid
func (o OperationType) IsValid() bool {
	switch o {
	case OperationCompleteStep,
		OperationAddStep,
		OperationAddSubStep,
		OperationUpdateStep:
		return true
	default:
		return false
	}
}

// String returns the string representation of the operation type
func (o OperationType) String() string {
	return string(o)
}

// ParseOperationType parses a string into an OperationType
func ParseOperationType(s string) (OperationType, error) {
	op := OperationType(s)
	if !op.IsValid() {
		return "", fmt.Errorf("invalid operation type: %s", s)
	}
	return op, nil
}
