package conversation

import (
	"errors"
	"fmt"
)

// State - состояние Conversation Loop внутри одного Run.
//
//	AwaitingModel --(нет tool calls)--> Done
//	AwaitingModel --(есть tool calls)--> HandlingTools
//	HandlingTools --(всегда)----------> AwaitingModel
type State int

const (
	StateAwaitingModel State = iota
	StateHandlingTools
	StateDone
)

// String возвращает строковое представление State (для логов).
func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AwaitingModel"
	case StateHandlingTools:
		return "HandlingTools"
	case StateDone:
		return "Done"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

var (
	// ErrEmptyInput - Run вызван с пустым текстом пользователя.
	ErrEmptyInput = errors.New("user input is empty")

	// ErrMaxRounds - модель продолжала запрашивать инструменты дольше MaxRounds.
	ErrMaxRounds = errors.New("maximum number of model rounds reached")
)

// ModelCallError - вызов модели не удался. Единственная ошибка,
// которая прерывает Run после начала диалога.
type ModelCallError struct {
	Round int
	Err   error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed on round %d: %v", e.Round, e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}
