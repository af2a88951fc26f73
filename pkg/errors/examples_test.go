package errors_test

import (
	"fmt"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewNotFoundError("session", "42")

	if errors.IsNotFound(err) {
		fmt.Println("Session not found")
	}

	// Output: Session not found
}

// Example_transportError demonstrates handling a backend failure.
func Example_transportError() {
	var err error = errors.NewTransportError("analyze", 400, "Файлы должны быть в формате Excel")

	var te *errors.TransportError
	if errors.As(err, &te) {
		fmt.Println(te.StatusCode, te.Message)
	}

	// Output: 400 Файлы должны быть в формате Excel
}

// Example_busy demonstrates the re-entrancy refusal.
func Example_busy() {
	err := &errors.BusyError{Requested: "submit", InFlight: "analyze"}
	fmt.Println(errors.IsBusy(err))

	// Output: true
}
