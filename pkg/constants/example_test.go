package constants_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/constants"
)

// Example demonstrates using constants for session files.
func Example() {
	dir, err := os.MkdirTemp("", "sessions")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "session.json")
	if err := os.WriteFile(file, []byte("{}"), constants.SecureFilePermissions); err != nil {
		panic(err)
	}

	fmt.Printf("Created session file with %o permissions\n", constants.SecureFilePermissions)

	// Output: Created session file with 600 permissions
}

// Example_timeout demonstrates bounding an analysis request.
func Example_timeout() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.AnalyzeTimeout)
	defer cancel()

	_, ok := ctx.Deadline()
	fmt.Println(ok)

	// Output: true
}

// Example_defaults shows the default column names.
func Example_defaults() {
	fmt.Println(constants.DefaultControlColumn, constants.DefaultOperationColumn, constants.DefaultRoleColumn, constants.DefaultUIDColumn)
	fmt.Printf(constants.HighlightWarningFormat+"\n", 2)

	// Output:
	// Управление Ведение Роль UID
	// Подсвечено 2 строк с несоответствием количества ролей.
}
